package handler // handler defines http handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/middleware"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

var validate = newValidator()

// newValidator reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ReservationEvents announces deleted reservations.  Creation is announced
// by booking.Service.
type ReservationEvents interface {
	ReservationDeleted(ctx context.Context, r model.Reservation) error
}

// Invalidator drops cached availability after a write.
type Invalidator func(ctx context.Context) error

// getUserID extracts the authenticated caller's ID.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// bind decodes the request body into dst and runs its validate tags.  The
// returned error is an *echo.HTTPError carrying the JSON body for a 400.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"error": fe.Field() + " failed " + fe.Tag(),
				"field": fe.Field(),
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return nil
}

// bookingError writes the HTTP form of an engine error: 400 for invalid
// input, 409 for unavailable dates and 500 for everything else.
func bookingError(c echo.Context, err error) error {
	var verr *booking.ValidationError
	var capErr *booking.CapacityExceededError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &capErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "dates not available",
			"dates": booking.FormatDates(capErr.Days),
		})
	default:
		log.Printf("booking: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation storage failed"})
	}
}

// afterDelete publishes a deleted event and drops cached availability.
// Both are best effort.
func afterDelete(ctx context.Context, events ReservationEvents, invalidate Invalidator, deleted ...model.Reservation) {
	for _, r := range deleted {
		if events == nil {
			break
		}
		if err := events.ReservationDeleted(ctx, r); err != nil {
			log.Printf("publish reservation.deleted %d: %v", r.ID, err)
		}
	}
	invalidateCache(ctx, invalidate)
}

func invalidateCache(ctx context.Context, invalidate Invalidator) {
	if invalidate == nil {
		return
	}
	if err := invalidate(ctx); err != nil {
		log.Printf("invalidate calendar cache: %v", err)
	}
}
