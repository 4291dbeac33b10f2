package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/pet-boarding-reservation/internal/handler"
)

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterAuth(e, &handler.AuthHandler{}, "s")
	RegisterPublic(e, &handler.ReservationHandler{}, nil)
	RegisterCustomer(e, &handler.PetHandler{}, &handler.ReservationHandler{}, "s", nil)
	RegisterAdmin(e, &handler.AdminHandler{}, "s")

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register", "POST /v1/auth/login", "POST /v1/auth/refresh",
		"POST /v1/auth/refresh-access", "POST /v1/auth/logout",
		"GET /v1/me", "PUT /v1/me", "GET /v1/me/admin",
		"GET /v1/calendar", "GET /v1/calendar/me",
		"GET /v1/pets", "POST /v1/pets", "PUT /v1/pets/:id", "DELETE /v1/pets/:id",
		"POST /v1/reservations/quote", "POST /v1/reservations", "GET /v1/reservations", "DELETE /v1/reservations/:id",
		"GET /v1/admin/users", "DELETE /v1/admin/users/:id",
		"GET /v1/admin/reservations", "DELETE /v1/admin/reservations/:id", "GET /v1/admin/occupancy",
	} {
		assert.True(t, got[want], want)
	}
	assert.False(t, got["GET /readyz"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := echo.New()
	RegisterCustomer(e, &handler.PetHandler{}, &handler.ReservationHandler{}, "s", nil)
	RegisterAdmin(e, &handler.AdminHandler{}, "s")

	for _, path := range []string{"/v1/pets", "/v1/reservations", "/v1/calendar/me", "/v1/admin/users"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
