package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusPaid, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusRejected, BookingStatusPaid, BookingStatusCancelled:
		return true
	}
	return false
}

// Releasing statuses hand reserved stock back to the ticket.
func (s BookingStatus) Releasing() bool {
	return s == BookingStatusCancelled || s == BookingStatusRejected
}

// bookingTransitions is the authoritative transition table. Anything not
// listed here is rejected, whatever the caller's role.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusPaid, BookingStatusCancelled},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking is a user's reservation against a ticket. Route, title, departure
// and price are snapshotted at booking time so history stays stable under
// later ticket edits.
type Booking struct {
	ID             int64         `json:"id"`
	Reference      string        `json:"reference"`
	TicketID       int64         `json:"ticket_id"`
	TicketTitle    string        `json:"ticket_title"`
	TransportType  TransportType `json:"transport_type"`
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	DepartureTime  time.Time     `json:"departure_time"`
	UnitPriceCents int64         `json:"unit_price_cents"`
	Quantity       int           `json:"quantity"`
	TotalCents     int64         `json:"total_cents"`
	UserEmail      string        `json:"user_email"`
	UserName       string        `json:"user_name,omitempty"`
	VendorEmail    string        `json:"vendor_email"`
	Status         BookingStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
