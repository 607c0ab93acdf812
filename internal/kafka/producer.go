package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is the wire form of a booking lifecycle change, consumed by
// the notification worker.
type BookingEvent struct {
	Type          string    `json:"type"`
	Reference     string    `json:"reference"`
	TicketID      int64     `json:"ticket_id"`
	TicketTitle   string    `json:"ticket_title"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Quantity      int       `json:"quantity"`
	TotalCents    int64     `json:"total_cents"`
	UserEmail     string    `json:"user_email"`
	VendorEmail   string    `json:"vendor_email"`
	Status        string    `json:"status"`
	DepartureTime time.Time `json:"departure_time"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
