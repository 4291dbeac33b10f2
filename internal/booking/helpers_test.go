package booking

import (
	"time"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

func d(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// stay builds a reservation for owner with n pets.
func stay(id uint64, start, end string, owner uint64, n int) model.Reservation {
	r := model.Reservation{ID: id, StartDate: d(start), EndDate: d(end), OwnerID: owner}
	for i := 0; i < n; i++ {
		r.Pets = append(r.Pets, model.ReservationPet{ReservationID: id, PetID: id*100 + uint64(i), OwnerID: owner})
	}
	return r
}
