package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	"github.com/iliyamo/pet-boarding-reservation/internal/repository"
)

// ReservationStore is implemented by *repository.ReservationRepo.
type ReservationStore interface {
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	DeleteForOwner(ctx context.Context, id, userID uint64) (model.Reservation, error)
	Delete(ctx context.Context, id uint64) (model.Reservation, error)
}

// ReservationHandler serves the calendar, quote and reservation endpoints.
type ReservationHandler struct {
	Booking      *booking.Service
	Reservations ReservationStore
	Events       ReservationEvents
	Invalidate   Invalidator
}

func NewReservationHandler(svc *booking.Service, rs ReservationStore, ev ReservationEvents, inv Invalidator) *ReservationHandler {
	return &ReservationHandler{Booking: svc, Reservations: rs, Events: ev, Invalidate: inv}
}

type calendarView struct {
	Blocked          []string `json:"blocked"`
	From             string   `json:"from"`
	Until            string   `json:"until"`
	MaxPetsPerDay    int      `json:"max_pets_per_day"`
	NightlyRateCents int64    `json:"nightly_rate_cents"`
	MaxCheckout      string   `json:"max_checkout,omitempty"`
}

type quoteReq struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	PetIDs    []uint64 `json:"pet_ids"`
}

type quoteView struct {
	Nights           int   `json:"nights"`
	PetCount         int   `json:"pet_count"`
	NightlyRateCents int64 `json:"nightly_rate_cents"`
	TotalCents       int64 `json:"total_cents"`
}

type submitReq struct {
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	PetIDs      []uint64 `json:"pet_ids"`
	Notes       string   `json:"notes" validate:"max=2000"`
	QuotedCents *int64   `json:"quoted_cents"`
}

// dates parses the two request dates.  Empty values stay zero so the
// engine reports them as missing.
func dates(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	var err error
	if start = strings.TrimSpace(start); start != "" {
		if s, err = booking.ParseDate(start); err != nil {
			return s, e, &booking.ValidationError{Field: "start_date", Reason: "expected YYYY-MM-DD"}
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if e, err = booking.ParseDate(end); err != nil {
			return s, e, &booking.ValidationError{Field: "end_date", Reason: "expected YYYY-MM-DD"}
		}
	}
	return s, e, nil
}

func (h *ReservationHandler) calendar(c echo.Context, userID uint64) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cal, err := h.Booking.Availability(ctx, userID)
	if err != nil {
		return bookingError(c, err)
	}
	v := calendarView{
		Blocked:          booking.FormatDates(cal.Blocked),
		From:             cal.From.Format(booking.DateLayout),
		Until:            cal.Until.Format(booking.DateLayout),
		MaxPetsPerDay:    cal.MaxPetsPerDay,
		NightlyRateCents: cal.NightlyRateCents,
	}
	if raw := c.QueryParam("start"); raw != "" {
		start, err := booking.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start", "field": "start"})
		}
		blocked := make(booking.DateSet, len(cal.Blocked))
		for _, d := range cal.Blocked {
			blocked.Add(d)
		}
		v.MaxCheckout = h.Booking.MaxCheckout(blocked, start).Format(booking.DateLayout)
	}
	return c.JSON(http.StatusOK, v)
}

// MyCalendar returns the dates the caller cannot book: full days and days
// they already board pets on.  With ?start=YYYY-MM-DD it also returns the
// latest checkout for a stay beginning that day.
func (h *ReservationHandler) MyCalendar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.calendar(c, uid)
}

// PublicCalendar returns only the facility-full dates.
func (h *ReservationHandler) PublicCalendar(c echo.Context) error {
	return h.calendar(c, 0)
}

// Quote prices a selection without saving anything.
func (h *ReservationHandler) Quote(c echo.Context) error {
	var req quoteReq
	if err := bind(c, &req); err != nil {
		return err
	}
	start, end, err := dates(req.StartDate, req.EndDate)
	if err != nil {
		return bookingError(c, err)
	}
	seen := make(map[uint64]bool, len(req.PetIDs))
	for _, id := range req.PetIDs {
		if id != 0 {
			seen[id] = true
		}
	}
	q, err := h.Booking.Quote(start, end, len(seen))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, quoteView{
		Nights:           q.Nights,
		PetCount:         q.PetCount,
		NightlyRateCents: q.NightlyRateCents,
		TotalCents:       q.TotalCents,
	})
}

// Submit books a stay for the caller's pets.
func (h *ReservationHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitReq
	if err := bind(c, &req); err != nil {
		return err
	}
	start, end, err := dates(req.StartDate, req.EndDate)
	if err != nil {
		return bookingError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Booking.Submit(ctx, booking.SubmitRequest{
		UserID:      uid,
		StartDate:   start,
		EndDate:     end,
		PetIDs:      req.PetIDs,
		Notes:       req.Notes,
		QuotedCents: req.QuotedCents,
	})
	if err != nil {
		return bookingError(c, err)
	}
	invalidateCache(ctx, h.Invalidate)
	return c.JSON(http.StatusCreated, toReservationView(res))
}

// ListMine returns the reservations that board any of the caller's pets.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Reservations.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, toReservationViews(list))
}

// DeleteMine cancels one of the caller's reservations and frees its days.
func (h *ReservationHandler) DeleteMine(c echo.Context) error {
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

	res, err := h.Reservations.DeleteForOwner(ctx, id, uid)
	if err != nil {
		return reservationError(c, err)
	}
	afterDelete(ctx, h.Events, h.Invalidate, res)
	return c.NoContent(http.StatusNoContent)
}

func reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	default:
		log.Printf("delete reservation: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete reservation failed"})
	}
}
