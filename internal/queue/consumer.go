package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier is told about newly created reservations, e.g. to mail the
// owner.
type Notifier interface {
	ReservationCreated(ctx context.Context, ev ReservationEvent) error
}

// Consumer reads reservation events from a durable queue, appends one line
// per event to LogPath and hands created events to Notifier when set.
type Consumer struct {
	URL      string
	Queue    string
	LogPath  string
	Notifier Notifier
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, redialing
// with exponential backoff (capped at 30s) whenever the connection drops.
// Messages that cannot be handled are rejected without requeue so the
// consumer never spins on a poison message.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				log.Printf("reservation-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.  A notifier failure is logged but
// does not fail the message: the event is already recorded.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type != ReservationCreated && ev.Type != ReservationDeleted {
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err := c.appendLog(ev); err != nil {
		return err
	}
	if ev.Type == ReservationCreated && c.Notifier != nil {
		if err := c.Notifier.ReservationCreated(ctx, ev); err != nil {
			log.Printf("reservation-consumer: notify reservation %d failed: %v", ev.ReservationID, err)
		}
	}
	return nil
}

func (c *Consumer) appendLog(ev ReservationEvent) error {
	path := c.LogPath
	if path == "" {
		path = filepath.Join("logs", "reservations.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single log line.
func FormatLine(ev ReservationEvent) string {
	return fmt.Sprintf("[%s] %s | id=%s | reservation_id=%d | owner_id=%d | %s..%s | nights=%d | pets=[%s] | total=%d cents\n",
		ev.OccurredAt, ev.Type, ev.ID, ev.ReservationID, ev.OwnerID, ev.StartDate, ev.EndDate,
		ev.Nights, strings.Join(ev.Pets, ","), ev.TotalCents)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
