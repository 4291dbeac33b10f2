// Package queue defines the reservation event payload and the background
// consumer that records and announces it.
package queue

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// Event types.
const (
	ReservationCreated = "reservation.created"
	ReservationDeleted = "reservation.deleted"
)

// ReservationEvent is published after a reservation is committed or
// deleted.  It carries enough for consumers to log and notify without
// querying the database again, except for the owner's contact details.
type ReservationEvent struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	ReservationID uint64   `json:"reservation_id"`
	OwnerID       uint64   `json:"owner_id"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Nights        int      `json:"nights"`
	Pets          []string `json:"pets"`
	TotalCents    int64    `json:"total_cents"`
	OccurredAt    string   `json:"occurred_at"`
}

// NewReservationEvent describes r as an event of the given type.
func NewReservationEvent(typ string, r model.Reservation, at time.Time) ReservationEvent {
	pets := make([]string, 0, len(r.Pets))
	for _, p := range r.Pets {
		name := p.Name
		if name == "" {
			name = "#" + strconv.FormatUint(p.PetID, 10)
		}
		pets = append(pets, name)
	}
	return ReservationEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		OwnerID:       r.OwnerID,
		StartDate:     r.StartDate.Format(booking.DateLayout),
		EndDate:       r.EndDate.Format(booking.DateLayout),
		Nights:        booking.Nights(r.StartDate, r.EndDate),
		Pets:          pets,
		TotalCents:    r.TotalCents,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
