package handler

import (
	"time"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// JSON shapes.  Calendar dates are rendered as YYYY-MM-DD.

type petView struct {
	ID           uint64 `json:"id"`
	OwnerID      uint64 `json:"owner_id"`
	Name         string `json:"name"`
	BirthDate    string `json:"birth_date"`
	Allergies    string `json:"allergies"`
	Observations string `json:"observations"`
}

type userView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type profileView struct {
	userView
	Pets []petView `json:"pets"`
}

type reservationView struct {
	ID         uint64                 `json:"id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	Nights     int                    `json:"nights"`
	Notes      string                 `json:"notes"`
	TotalCents int64                  `json:"total_cents"`
	OwnerID    uint64                 `json:"owner_id,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Pets       []model.ReservationPet `json:"pets"`
}

func toPetView(p model.Pet) petView {
	v := petView{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		Allergies:    p.Allergies,
		Observations: p.Observations,
	}
	if !p.BirthDate.IsZero() {
		v.BirthDate = p.BirthDate.Format(booking.DateLayout)
	}
	return v
}

func toPetViews(pets []model.Pet) []petView {
	out := make([]petView, 0, len(pets))
	for _, p := range pets {
		out = append(out, toPetView(p))
	}
	return out
}

func toUserView(u model.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		Address:   u.Address,
		IsAdmin:   u.IsAdmin(),
		CreatedAt: u.CreatedAt,
	}
}

func toProfileView(p model.Profile) profileView {
	return profileView{userView: toUserView(p.User), Pets: toPetViews(p.Pets)}
}

func toProfileViews(list []model.Profile) []profileView {
	out := make([]profileView, 0, len(list))
	for _, p := range list {
		out = append(out, toProfileView(p))
	}
	return out
}

func toReservationView(r model.Reservation) reservationView {
	pets := r.Pets
	if pets == nil {
		pets = []model.ReservationPet{}
	}
	return reservationView{
		ID:         r.ID,
		StartDate:  r.StartDate.Format(booking.DateLayout),
		EndDate:    r.EndDate.Format(booking.DateLayout),
		Nights:     booking.Nights(r.StartDate, r.EndDate),
		Notes:      r.Notes,
		TotalCents: r.TotalCents,
		OwnerID:    r.OwnerID,
		CreatedAt:  r.CreatedAt,
		Pets:       pets,
	}
}

func toReservationViews(list []model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationView(r))
	}
	return out
}
