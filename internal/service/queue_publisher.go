// Package queue_publisher publishes reservation events to RabbitMQ.
// Errors are logged and returned so callers can treat publishing as best
// effort without interrupting the request.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	q "github.com/iliyamo/pet-boarding-reservation/internal/queue"
)

// Publisher sends events to a durable queue on the default exchange.  A
// Publisher with an empty URL drops every event.
type Publisher struct {
	url   string
	queue string
	now   func() time.Time
}

// New returns a Publisher for the broker at url.
func New(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue, now: time.Now}
}

// Enabled reports whether a broker is configured.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// ReservationCreated publishes a reservation.created event for r.
func (p *Publisher) ReservationCreated(ctx context.Context, r model.Reservation) error {
	if !p.Enabled() {
		return nil
	}
	return p.Publish(ctx, q.NewReservationEvent(q.ReservationCreated, r, p.now()))
}

// ReservationDeleted publishes a reservation.deleted event for r.
func (p *Publisher) ReservationDeleted(ctx context.Context, r model.Reservation) error {
	if !p.Enabled() {
		return nil
	}
	return p.Publish(ctx, q.NewReservationEvent(q.ReservationDeleted, r, p.now()))
}

// Publish sends ev as a persistent JSON message.  Each call opens its own
// connection.
func (p *Publisher) Publish(ctx context.Context, ev q.ReservationEvent) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
