package domain

import "time"

type TransportType string

const (
	TransportBus   TransportType = "BUS"
	TransportTrain TransportType = "TRAIN"
	TransportPlane TransportType = "PLANE"
	TransportShip  TransportType = "SHIP"
	TransportCar   TransportType = "CAR"
)

func (t TransportType) Valid() bool {
	switch t {
	case TransportBus, TransportTrain, TransportPlane, TransportShip, TransportCar:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// MaxActiveAds caps the number of tickets that may be advertised at once,
// system-wide.
const MaxActiveAds = 6

// Advertisement is the promoted-slot state carried on a ticket. Expiry is
// derived: a ticket whose ExpiresAt has passed counts as not advertised even
// if Active is still set, until the reconcile sweep clears it.
type Advertisement struct {
	Active       bool      `json:"active"`
	Priority     int       `json:"priority,omitempty"`
	AdvertisedAt time.Time `json:"advertised_at,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

func (a Advertisement) ActiveAt(now time.Time) bool {
	return a.Active && a.ExpiresAt.After(now)
}

type Ticket struct {
	ID                 int64              `json:"id"`
	Title              string             `json:"title"`
	TransportType      TransportType      `json:"transport_type"`
	Origin             string             `json:"origin"`
	Destination        string             `json:"destination"`
	PriceCents         int64              `json:"price_cents"`
	TotalQuantity      int                `json:"total_quantity"`
	AvailableQuantity  int                `json:"available_quantity"`
	DepartureTime      time.Time          `json:"departure_time"`
	Perks              []string           `json:"perks,omitempty"`
	ImageURL           string             `json:"image_url,omitempty"`
	VendorEmail        string             `json:"vendor_email"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Advertisement      Advertisement      `json:"advertisement"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Bookable reports whether a new booking may be taken against the ticket.
// Stock is checked separately by the atomic decrement.
func (t *Ticket) Bookable(now time.Time) bool {
	return t.VerificationStatus == VerificationApproved && t.DepartureTime.After(now)
}
