package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/repository"
)

// DayCounts reads the stored per-day occupancy counters.
type DayCounts interface {
	Counts(ctx context.Context, from, until time.Time) (booking.Ledger, error)
}

// AdminHandler serves the administrator endpoints.  Routes are mounted
// behind RequireAdmin.
type AdminHandler struct {
	Users        UserStore
	Reservations ReservationStore
	Days         DayCounts
	Events       ReservationEvents
	Invalidate   Invalidator
	Clock        booking.Clock
}

func NewAdminHandler(u UserStore, rs ReservationStore, days DayCounts, ev ReservationEvents, inv Invalidator) *AdminHandler {
	return &AdminHandler{Users: u, Reservations: rs, Days: days, Events: ev, Invalidate: inv, Clock: booking.RealClock{}}
}

func (h *AdminHandler) today() time.Time {
	if h.Clock == nil {
		return booking.Day(time.Now())
	}
	return booking.Day(h.Clock.Now())
}

// ListUsers returns every user with their pets.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Users.ListProfiles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, toProfileViews(list))
}

// DeleteUser removes a user, their pets and the reservations boarding
// those pets.  An administrator cannot delete their own account here.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Printf("delete user %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	afterDelete(ctx, h.Events, h.Invalidate, deleted...)
	return c.JSON(http.StatusOK, echo.Map{"deleted_reservations": len(deleted)})
}

// ListReservations returns every reservation with its pets and owner.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Reservations.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, toReservationViews(list))
}

// DeleteReservation removes any reservation.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Reservations.Delete(ctx, id)
	if err != nil {
		return reservationError(c, err)
	}
	afterDelete(ctx, h.Events, h.Invalidate, res)
	return c.NoContent(http.StatusNoContent)
}

type occupancyDay struct {
	Date string `json:"date"`
	Pets int    `json:"pets"`
}

// Occupancy lists the stored counters for [from, until).  Both default to
// today and today plus 31 days.  Days without a counter are omitted.
func (h *AdminHandler) Occupancy(c echo.Context) error {
	from := h.today()
	until := from.AddDate(0, 0, 31)
	var err error
	if raw := c.QueryParam("from"); raw != "" {
		if from, err = booking.ParseDate(raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from", "field": "from"})
		}
	}
	if raw := c.QueryParam("until"); raw != "" {
		if until, err = booking.ParseDate(raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid until", "field": "until"})
		}
	}
	if !from.Before(until) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "until must be after from", "field": "until"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ledger, err := h.Days.Counts(ctx, from, until)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load occupancy failed"})
	}
	out := make([]occupancyDay, 0, len(ledger))
	for _, d := range booking.Days(from, until) {
		if n := ledger.Count(d); n > 0 {
			out = append(out, occupancyDay{Date: d.Format(booking.DateLayout), Pets: n})
		}
	}
	return c.JSON(http.StatusOK, out)
}
