package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type CatalogUseCase interface {
	CreateTicket(ctx context.Context, p domain.Principal, input CreateTicketInput) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, p domain.Principal, id int64, patch UpdateTicketInput) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, p domain.Principal, id int64) error
	SetVerificationStatus(ctx context.Context, p domain.Principal, id int64, status domain.VerificationStatus) (*domain.Ticket, error)
}

// Cache is the slice of the redis cache the catalog needs: dropping stale
// listing pages after a mutation.
type Cache interface {
	InvalidateCatalog(ctx context.Context) error
}

type CreateTicketInput struct {
	Title         string
	TransportType domain.TransportType
	Origin        string
	Destination   string
	PriceCents    int64
	Quantity      int
	DepartureTime time.Time
	Perks         []string
	ImageURL      string
}

// UpdateTicketInput carries the vendor-editable fields. Nil means unchanged.
type UpdateTicketInput struct {
	Title         *string
	TransportType *domain.TransportType
	Origin        *string
	Destination   *string
	PriceCents    *int64
	Quantity      *int
	DepartureTime *time.Time
	Perks         []string
	ImageURL      *string
}

type CatalogService struct {
	tickets  repository.TicketRepository
	bookings repository.BookingRepository
	cache    Cache
	log      zerolog.Logger
}

func NewCatalogService(tickets repository.TicketRepository, bookings repository.BookingRepository, cache Cache, log zerolog.Logger) *CatalogService {
	return &CatalogService{tickets: tickets, bookings: bookings, cache: cache, log: log}
}

const (
	minTitleLen = 5
	minPrice    = 100 // one currency unit, in cents
	maxQuantity = 1000
)

func validateTicketFields(title string, transport domain.TransportType, priceCents int64, quantity int, departure time.Time, now time.Time) error {
	if len(title) < minTitleLen {
		return domain.Errorf(domain.CodeValidation, "title must be at least %d characters", minTitleLen)
	}
	if !transport.Valid() {
		return domain.Errorf(domain.CodeValidation, "unknown transport type %q", transport)
	}
	if priceCents < minPrice {
		return domain.Errorf(domain.CodeValidation, "price must be at least 1")
	}
	if quantity < 1 || quantity > maxQuantity {
		return domain.Errorf(domain.CodeValidation, "quantity must be between 1 and %d", maxQuantity)
	}
	if !departure.After(now) {
		return domain.Errorf(domain.CodeValidation, "departure time must be in the future")
	}
	return nil
}

func (s *CatalogService) CreateTicket(ctx context.Context, p domain.Principal, input CreateTicketInput) (*domain.Ticket, error) {
	if !p.IsVendor() {
		return nil, domain.Errorf(domain.CodeAuthorization, "only vendors may create tickets")
	}
	if err := validateTicketFields(input.Title, input.TransportType, input.PriceCents, input.Quantity, input.DepartureTime, time.Now()); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:              input.Title,
		TransportType:      input.TransportType,
		Origin:             input.Origin,
		Destination:        input.Destination,
		PriceCents:         input.PriceCents,
		TotalQuantity:      input.Quantity,
		AvailableQuantity:  input.Quantity,
		DepartureTime:      input.DepartureTime,
		Perks:              input.Perks,
		ImageURL:           input.ImageURL,
		VendorEmail:        p.Email,
		VerificationStatus: domain.VerificationPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Int64("ticket_id", ticket.ID).Str("vendor", p.Email).Msg("ticket created")
	return ticket, nil
}

func (s *CatalogService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Errorf(domain.CodeNotFound, "ticket %d not found", id)
	}
	return ticket, err
}

// UpdateTicket applies a vendor patch. Any edit sends the ticket back to
// review: verification status resets to pending and an active advertisement
// is cleared, since only approved tickets may be advertised.
func (s *CatalogService) UpdateTicket(ctx context.Context, p domain.Principal, id int64, patch UpdateTicketInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.VendorEmail != p.Email {
		return nil, domain.Errorf(domain.CodeAuthorization, "ticket %d does not belong to %s", id, p.Email)
	}

	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.TransportType != nil {
		ticket.TransportType = *patch.TransportType
	}
	if patch.Origin != nil {
		ticket.Origin = *patch.Origin
	}
	if patch.Destination != nil {
		ticket.Destination = *patch.Destination
	}
	if patch.PriceCents != nil {
		ticket.PriceCents = *patch.PriceCents
	}
	if patch.DepartureTime != nil {
		ticket.DepartureTime = *patch.DepartureTime
	}
	if patch.Perks != nil {
		ticket.Perks = patch.Perks
	}
	if patch.ImageURL != nil {
		ticket.ImageURL = *patch.ImageURL
	}
	if patch.Quantity != nil {
		reserved := ticket.TotalQuantity - ticket.AvailableQuantity
		if *patch.Quantity < reserved {
			return nil, domain.Errorf(domain.CodeValidation, "quantity %d is below the %d already reserved", *patch.Quantity, reserved)
		}
		ticket.TotalQuantity = *patch.Quantity
		ticket.AvailableQuantity = *patch.Quantity - reserved
	}

	if err := validateTicketFields(ticket.Title, ticket.TransportType, ticket.PriceCents, ticket.TotalQuantity, ticket.DepartureTime, time.Now()); err != nil {
		return nil, err
	}

	ticket.VerificationStatus = domain.VerificationPending
	if ticket.Advertisement.Active {
		if err := s.tickets.Demote(ctx, id); err != nil {
			return nil, err
		}
		ticket.Advertisement = domain.Advertisement{}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.CodeNotFound, "ticket %d not found", id)
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Int64("ticket_id", id).Msg("ticket updated, back to review")
	return ticket, nil
}

// DeleteTicket is blocked while non-terminal bookings reference the ticket.
func (s *CatalogService) DeleteTicket(ctx context.Context, p domain.Principal, id int64) error {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if ticket.VendorEmail != p.Email && !p.IsAdmin() {
		return domain.Errorf(domain.CodeAuthorization, "ticket %d does not belong to %s", id, p.Email)
	}

	active, err := s.bookings.CountActiveByTicket(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.Errorf(domain.CodeConflict, "ticket %d has %d active bookings", id, active)
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Errorf(domain.CodeNotFound, "ticket %d not found", id)
		}
		return err
	}

	s.invalidate(ctx)
	s.log.Info().Int64("ticket_id", id).Msg("ticket deleted")
	return nil
}

func (s *CatalogService) SetVerificationStatus(ctx context.Context, p domain.Principal, id int64, status domain.VerificationStatus) (*domain.Ticket, error) {
	if !p.IsAdmin() {
		return nil, domain.Errorf(domain.CodeAuthorization, "only admins may verify tickets")
	}
	if !status.Valid() {
		return nil, domain.Errorf(domain.CodeValidation, "unknown verification status %q", status)
	}

	if err := s.tickets.SetVerificationStatus(ctx, id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.CodeNotFound, "ticket %d not found", id)
		}
		return nil, err
	}

	// A rejected ticket must not stay advertised.
	if status == domain.VerificationRejected {
		if err := s.tickets.Demote(ctx, id); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx)
	s.log.Info().Int64("ticket_id", id).Str("status", string(status)).Msg("verification status set")
	return s.GetTicket(ctx, id)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

var _ CatalogUseCase = (*CatalogService)(nil)
