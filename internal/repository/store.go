package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

var _ booking.Store = (*BookingStore)(nil)

// BookingStore is the persistence behind booking.Service.
type BookingStore struct {
	Pets         *PetRepo
	Reservations *ReservationRepo
}

// NewBookingStore builds the store on db.
func NewBookingStore(db *sqlx.DB) *BookingStore {
	return &BookingStore{Pets: NewPetRepo(db), Reservations: NewReservationRepo(db)}
}

func (s *BookingStore) PetsOwnedBy(ctx context.Context, userID uint64) ([]model.Pet, error) {
	return s.Pets.ListByOwner(ctx, userID)
}

func (s *BookingStore) ReservationsEndingAfter(ctx context.Context, day time.Time) ([]model.Reservation, error) {
	return s.Reservations.ReservationsEndingAfter(ctx, day)
}

func (s *BookingStore) CreateReservation(ctx context.Context, ownerID uint64, r *model.Reservation, maxPetsPerDay int) error {
	return s.Reservations.CreateReservation(ctx, ownerID, r, maxPetsPerDay)
}
