package model

import "time"

// Reservation is a boarding stay for one or more pets.  StartDate and
// EndDate are calendar dates (UTC midnight).  The stay occupies the
// half-open range [StartDate, EndDate): the checkout day is not a
// boarding day.
//
// There is no user column on reservations.  A reservation belongs to the
// owners of its pets, so Pets carries each pet's OwnerID and OwnerID holds
// the owner resolved when the row was loaded (zero when every associated
// pet has since been deleted).
type Reservation struct {
	ID         uint64           `db:"id" json:"id"`
	StartDate  time.Time        `db:"start_date" json:"start_date"`
	EndDate    time.Time        `db:"end_date" json:"end_date"`
	Notes      string           `db:"notes" json:"notes"`
	TotalCents int64            `db:"total_cents" json:"total_cents"`
	OwnerID    uint64           `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	Pets       []ReservationPet `db:"-" json:"pets"`
}

// ReservationPet is one row of the reservation_pets join, enriched with the
// pet's name and owner when the pet still exists.
type ReservationPet struct {
	ReservationID uint64 `db:"reservation_id" json:"-"`
	PetID         uint64 `db:"pet_id" json:"id"`
	Name          string `db:"name" json:"name"`
	Allergies     string `db:"allergies" json:"allergies,omitempty"`
	Observations  string `db:"observations" json:"observations,omitempty"`
	OwnerID       uint64 `db:"owner_id" json:"owner_id,omitempty"`
}

// PetCount is the number of boarding places the reservation takes per day.
func (r Reservation) PetCount() int { return len(r.Pets) }

// OwnedBy reports whether userID is a transitive owner of the reservation,
// i.e. owns at least one of its pets.
func (r Reservation) OwnedBy(userID uint64) bool {
	if userID == 0 {
		return false
	}
	if r.OwnerID == userID {
		return true
	}
	for _, p := range r.Pets {
		if p.OwnerID == userID {
			return true
		}
	}
	return false
}
