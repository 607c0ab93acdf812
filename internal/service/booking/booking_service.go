package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/kafka"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, p domain.Principal, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, p domain.Principal, id int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, p domain.Principal, id int64) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, p domain.Principal, id int64, to domain.BookingStatus) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	TicketID int64 `json:"ticket_id"`
	Quantity int   `json:"quantity"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

type BookingService struct {
	bookings           repository.BookingRepository
	tickets            repository.TicketRepository
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                zerolog.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	tickets repository.TicketRepository,
	producer Producer,
	bookingTopic string,
	log zerolog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		tickets:      tickets,
		producer:     producer,
		bookingTopic: bookingTopic,
		log:          log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking reserves stock and records the booking. The check-and-
// decrement is one conditional update inside the repository transaction, so
// concurrent requests can never oversell. On a guard failure the statement
// is retried once before the error is surfaced.
func (s *BookingService) CreateBooking(ctx context.Context, p domain.Principal, input CreateBookingInput) (*domain.Booking, error) {
	if input.Quantity < 1 {
		return nil, domain.Errorf(domain.CodeValidation, "quantity must be positive")
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Errorf(domain.CodeNotFound, "ticket %d not found", input.TicketID)
	}
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Reference:      newReference(),
		TicketID:       ticket.ID,
		TicketTitle:    ticket.Title,
		TransportType:  ticket.TransportType,
		Origin:         ticket.Origin,
		Destination:    ticket.Destination,
		DepartureTime:  ticket.DepartureTime,
		UnitPriceCents: ticket.PriceCents,
		Quantity:       input.Quantity,
		TotalCents:     ticket.PriceCents * int64(input.Quantity),
		UserEmail:      p.Email,
		UserName:       p.Name,
		VendorEmail:    ticket.VendorEmail,
	}

	err = s.bookings.CreatePending(ctx, booking)
	if errors.Is(err, repository.ErrConditionFailed) {
		err = s.bookings.CreatePending(ctx, booking)
	}
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.diagnoseReservationFailure(ctx, input.TicketID, input.Quantity)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_created", booking)
	s.log.Info().Str("reference", booking.Reference).Int64("ticket_id", ticket.ID).
		Int("quantity", booking.Quantity).Msg("booking created")
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, p domain.Principal, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Errorf(domain.CodeNotFound, "booking %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !s.mayView(p, booking) {
		return nil, domain.Errorf(domain.CodeAuthorization, "booking %d is not visible to %s", id, p.Email)
	}
	return booking, nil
}

// CancelBooking transitions to cancelled and restores the reserved stock.
// Cancelling an already-cancelled booking is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, p domain.Principal, id int64) (*domain.Booking, error) {
	booking, err := s.GetBooking(ctx, p, id)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusCancelled:
		return booking, nil
	case domain.BookingStatusPaid:
		return nil, domain.Errorf(domain.CodeConflict, "booking %s is paid and cannot be cancelled", booking.Reference)
	case domain.BookingStatusRejected:
		return nil, domain.Errorf(domain.CodeInvalidTransition, "cannot cancel a rejected booking")
	}

	updated, err := s.bookings.ReleaseAndSetStatus(ctx, id, booking.Status, domain.BookingStatusCancelled)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, domain.Errorf(domain.CodeConflict, "booking %s changed state concurrently", booking.Reference)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_cancelled", updated)
	s.log.Info().Str("reference", updated.Reference).Msg("booking cancelled, stock restored")
	return updated, nil
}

// UpdateBookingStatus validates the requested transition against the state
// machine and the caller's role, then applies it with a guard on the
// expected current status.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, p domain.Principal, id int64, to domain.BookingStatus) (*domain.Booking, error) {
	if !to.Valid() {
		return nil, domain.Errorf(domain.CodeValidation, "unknown booking status %q", to)
	}

	booking, err := s.GetBooking(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(booking.Status, to) {
		return nil, domain.Errorf(domain.CodeInvalidTransition, "cannot transition booking from %s to %s", booking.Status, to)
	}

	switch to {
	case domain.BookingStatusAccepted, domain.BookingStatusRejected:
		if !p.IsAdmin() && !(p.IsVendor() && p.Email == booking.VendorEmail) {
			return nil, domain.Errorf(domain.CodeAuthorization, "only the vendor or an admin may %s a booking", strings.ToLower(string(to)))
		}
	case domain.BookingStatusPaid:
		if p.Email != booking.UserEmail {
			return nil, domain.Errorf(domain.CodeAuthorization, "only the booking owner may confirm payment")
		}
	case domain.BookingStatusCancelled:
		return s.CancelBooking(ctx, p, id)
	}

	// Acceptance re-validates that the ticket is still sellable. The
	// quantity itself was reserved at creation, so no second decrement.
	if to == domain.BookingStatusAccepted {
		ticket, err := s.tickets.GetByID(ctx, booking.TicketID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.CodeConflict, "ticket %d no longer exists", booking.TicketID)
		}
		if err != nil {
			return nil, err
		}
		if !ticket.Bookable(time.Now()) {
			return nil, domain.Errorf(domain.CodeTicketUnavailable, "ticket %d is no longer available", ticket.ID)
		}
	}

	var updated *domain.Booking
	if to.Releasing() {
		updated, err = s.bookings.ReleaseAndSetStatus(ctx, id, booking.Status, to)
	} else {
		updated, err = s.bookings.UpdateStatus(ctx, id, booking.Status, to)
	}
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, domain.Errorf(domain.CodeConflict, "booking %s changed state concurrently", booking.Reference)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_"+strings.ToLower(string(to)), updated)
	s.log.Info().Str("reference", updated.Reference).Str("status", string(to)).Msg("booking status updated")
	return updated, nil
}

// diagnoseReservationFailure turns a failed conditional decrement into the
// precise client-facing error.
func (s *BookingService) diagnoseReservationFailure(ctx context.Context, ticketID int64, quantity int) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Errorf(domain.CodeNotFound, "ticket %d not found", ticketID)
	}
	if err != nil {
		return err
	}
	if !ticket.Bookable(time.Now()) {
		return domain.Errorf(domain.CodeTicketUnavailable, "ticket %d is not open for booking", ticketID)
	}
	return domain.Errorf(domain.CodeInsufficientStock, "ticket %d has %d seats left, %d requested", ticketID, ticket.AvailableQuantity, quantity)
}

func (s *BookingService) mayView(p domain.Principal, b *domain.Booking) bool {
	return p.IsAdmin() || p.Email == b.UserEmail || p.Email == b.VendorEmail
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		Reference:     booking.Reference,
		TicketID:      booking.TicketID,
		TicketTitle:   booking.TicketTitle,
		Origin:        booking.Origin,
		Destination:   booking.Destination,
		Quantity:      booking.Quantity,
		TotalCents:    booking.TotalCents,
		UserEmail:     booking.UserEmail,
		VendorEmail:   booking.VendorEmail,
		Status:        string(booking.Status),
		DepartureTime: booking.DepartureTime,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		s.log.Warn().Err(err).Str("reference", booking.Reference).Str("event", eventType).Msg("publish failed")
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			s.log.Warn().Err(err).Str("reference", booking.Reference).Str("event", eventType).Msg("notification publish failed")
		}
	}
}

// newReference builds the human-readable booking reference, e.g.
// TL-20260828-153004-9F3A21C4.
func newReference() string {
	return fmt.Sprintf("TL-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]))
}

var _ BookingUseCase = (*BookingService)(nil)
