package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ticketline/config"
	"github.com/Domenick1991/ticketline/internal/kafka"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Sender mails booking lifecycle notifications to the customer. With no SMTP
// host configured it degrades to logging the notification.
type Sender struct {
	cfg    config.SMTPConfig
	client *mail.Client
	log    zerolog.Logger
}

func NewSender(cfg config.SMTPConfig, log zerolog.Logger) (*Sender, error) {
	s := &Sender{cfg: cfg, log: log}
	if cfg.Host == "" {
		return s, nil
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject := fmt.Sprintf("Booking %s: %s", event.Reference, subjectFor(event.Type))
	body := fmt.Sprintf("Your booking %s for %q (%s -> %s, departing %s) is now %s.\nQuantity: %d, total: %.2f.\n",
		event.Reference, event.TicketTitle, event.Origin, event.Destination,
		event.DepartureTime.Format("2006-01-02 15:04"), event.Status,
		event.Quantity, float64(event.TotalCents)/100)

	if s.client == nil {
		s.log.Info().
			Str("to", event.UserEmail).
			Str("subject", subject).
			Msg("smtp not configured, logging notification")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return err
	}
	if err := msg.To(event.UserEmail); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return s.client.DialAndSendWithContext(ctx, msg)
}

func subjectFor(eventType string) string {
	switch eventType {
	case "booking_created":
		return "received"
	case "booking_accepted":
		return "accepted"
	case "booking_rejected":
		return "rejected"
	case "booking_paid":
		return "payment confirmed"
	case "booking_cancelled":
		return "cancelled"
	}
	return "updated"
}
