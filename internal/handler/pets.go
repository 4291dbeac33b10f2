package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	"github.com/iliyamo/pet-boarding-reservation/internal/repository"
)

// PetStore is implemented by *repository.PetRepo.
type PetStore interface {
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Pet, error)
	Get(ctx context.Context, id uint64) (model.Pet, error)
	Create(ctx context.Context, p *model.Pet) error
	Update(ctx context.Context, p *model.Pet, callerID uint64) error
	Delete(ctx context.Context, id, callerID uint64) error
}

type PetHandler struct {
	Pets PetStore
}

func NewPetHandler(p PetStore) *PetHandler { return &PetHandler{Pets: p} }

type createPetReq struct {
	Name         string `json:"name" validate:"required,max=100"`
	BirthDate    string `json:"birth_date" validate:"required"`
	Allergies    string `json:"allergies" validate:"max=1000"`
	Observations string `json:"observations" validate:"max=1000"`
}

type updatePetReq struct {
	Name         string `json:"name" validate:"omitempty,max=100"`
	BirthDate    string `json:"birth_date"`
	Allergies    string `json:"allergies" validate:"max=1000"`
	Observations string `json:"observations" validate:"max=1000"`
}

// petFields is the part of a request copier moves onto model.Pet.
type petFields struct {
	Name         string
	Allergies    string
	Observations string
}

// parseBirth accepts a YYYY-MM-DD date that is not in the future.
func parseBirth(s string) (time.Time, error) {
	d, err := booking.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	if d.After(booking.Day(time.Now())) {
		return time.Time{}, errors.New("birth_date is in the future")
	}
	return d, nil
}

// List returns the caller's pets.
func (h *PetHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pets, err := h.Pets.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list pets failed"})
	}
	return c.JSON(http.StatusOK, toPetViews(pets))
}

// Create registers a pet for the caller.
func (h *PetHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	birth, err := parseBirth(req.BirthDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birth_date", "field": "birth_date"})
	}

	p := model.Pet{OwnerID: uid, BirthDate: birth}
	if err := copier.Copy(&p, petFields{Name: req.Name, Allergies: req.Allergies, Observations: req.Observations}); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Pets.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pet failed"})
	}
	return c.JSON(http.StatusCreated, toPetView(p))
}

// Update changes a pet of the caller.  Empty fields keep their value.
func (h *PetHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updatePetReq
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Pets.Get(ctx, id)
	if err != nil {
		return petError(c, err)
	}
	if p.OwnerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your pet"})
	}
	if err := copier.CopyWithOption(&p, petFields{Name: req.Name, Allergies: req.Allergies, Observations: req.Observations},
		copier.Option{IgnoreEmpty: true}); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.BirthDate) != "" {
		birth, err := parseBirth(req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birth_date", "field": "birth_date"})
		}
		p.BirthDate = birth
	}
	if err := h.Pets.Update(ctx, &p, uid); err != nil {
		return petError(c, err)
	}
	return c.JSON(http.StatusOK, toPetView(p))
}

// Delete removes a pet of the caller.  Reservations that boarded it stay.
func (h *PetHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Pets.Delete(ctx, id, uid); err != nil {
		return petError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func petError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "pet not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your pet"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pet update failed"})
	}
}
