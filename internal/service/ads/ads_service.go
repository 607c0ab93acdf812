package ads

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type AdsUseCase interface {
	Promote(ctx context.Context, p domain.Principal, ticketID int64, durationDays, priority int) (*domain.Ticket, error)
	Demote(ctx context.Context, p domain.Principal, ticketID int64) error
	ReconcileExpired(ctx context.Context) ([]int64, error)
}

// Locker serializes promotions across instances. The capacity guard inside
// the conditional update is authoritative; the lock just avoids wasted
// round-trips under contention.
type Locker interface {
	AcquirePromoLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleasePromoLock(ctx context.Context) error
}

const (
	maxDurationDays = 30
	promoLockTTL    = 5 * time.Second
)

type AdsService struct {
	tickets repository.TicketRepository
	locker  Locker
	log     zerolog.Logger
}

func NewAdsService(tickets repository.TicketRepository, locker Locker, log zerolog.Logger) *AdsService {
	return &AdsService{tickets: tickets, locker: locker, log: log}
}

// Promote admits the ticket into the fixed advertised pool. Fails when the
// pool already holds domain.MaxActiveAds live advertisements, or when the
// ticket is not approved. The count-check-and-set is one conditional update;
// it is retried once before the failure is surfaced.
func (s *AdsService) Promote(ctx context.Context, p domain.Principal, ticketID int64, durationDays, priority int) (*domain.Ticket, error) {
	if !p.IsAdmin() {
		return nil, domain.Errorf(domain.CodeAuthorization, "only admins may promote tickets")
	}
	if durationDays < 1 || durationDays > maxDurationDays {
		return nil, domain.Errorf(domain.CodeValidation, "duration must be between 1 and %d days", maxDurationDays)
	}
	if priority < 0 {
		return nil, domain.Errorf(domain.CodeValidation, "priority must not be negative")
	}

	if s.locker != nil {
		ok, err := s.locker.AcquirePromoLock(ctx, promoLockTTL)
		if err == nil && ok {
			defer func() {
				if err := s.locker.ReleasePromoLock(ctx); err != nil {
					s.log.Warn().Err(err).Msg("promo lock release failed")
				}
			}()
		}
	}

	expiresAt := time.Now().AddDate(0, 0, durationDays)
	err := s.tickets.Promote(ctx, ticketID, priority, expiresAt, domain.MaxActiveAds)
	if errors.Is(err, repository.ErrConditionFailed) {
		err = s.tickets.Promote(ctx, ticketID, priority, expiresAt, domain.MaxActiveAds)
	}
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.diagnosePromotionFailure(ctx, ticketID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("ticket_id", ticketID).Int("duration_days", durationDays).
		Int("priority", priority).Msg("ticket promoted")
	return s.tickets.GetByID(ctx, ticketID)
}

// Demote clears the advertisement unconditionally and is idempotent.
func (s *AdsService) Demote(ctx context.Context, p domain.Principal, ticketID int64) error {
	if !p.IsAdmin() {
		return domain.Errorf(domain.CodeAuthorization, "only admins may demote tickets")
	}
	if err := s.tickets.Demote(ctx, ticketID); err != nil {
		return err
	}
	s.log.Info().Int64("ticket_id", ticketID).Msg("ticket demoted")
	return nil
}

// ReconcileExpired clears advertisement rows whose expiry has passed. Expiry
// is already honored lazily by reads and by the capacity guard, so the sweep
// only converges stored state; it is idempotent and safe to rerun.
func (s *AdsService) ReconcileExpired(ctx context.Context) ([]int64, error) {
	ids, err := s.tickets.DemoteExpired(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.log.Info().Ints64("ticket_ids", ids).Msg("expired advertisements cleared")
	}
	return ids, nil
}

func (s *AdsService) diagnosePromotionFailure(ctx context.Context, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Errorf(domain.CodeNotFound, "ticket %d not found", ticketID)
	}
	if err != nil {
		return err
	}
	if ticket.VerificationStatus != domain.VerificationApproved {
		return domain.Errorf(domain.CodeConflict, "ticket %d is not approved", ticketID)
	}
	if ticket.Advertisement.ActiveAt(time.Now()) {
		return domain.Errorf(domain.CodeConflict, "ticket %d is already advertised", ticketID)
	}
	active, err := s.tickets.CountActiveAds(ctx)
	if err != nil {
		return err
	}
	if active >= domain.MaxActiveAds {
		return domain.Errorf(domain.CodeCapacity, "all %d advertisement slots are taken", domain.MaxActiveAds)
	}
	return domain.Errorf(domain.CodeConflict, "promotion of ticket %d raced a concurrent change", ticketID)
}

var _ AdsUseCase = (*AdsService)(nil)
