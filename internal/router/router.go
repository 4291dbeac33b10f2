package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pet-boarding-reservation/internal/handler"
	"github.com/iliyamo/pet-boarding-reservation/internal/middleware"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// RegisterRoutes registers the probes.  ready may be nil.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// caller's own profile under /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps it
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret), anyRole())
	me.GET("", a.Me)
	me.PUT("", a.UpdateMe)
	me.GET("/admin", a.IsAdmin)
}

// RegisterPublic registers unauthenticated endpoints.  cache wraps the
// public calendar and may be nil.
func RegisterPublic(e *echo.Echo, r *handler.ReservationHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/calendar", r.PublicCalendar, cache)
		return
	}
	e.GET("/v1/calendar", r.PublicCalendar)
}

// RegisterCustomer registers the pet and reservation endpoints of a
// logged-in user.  Administrators may use them for their own pets too.
// writes limits the creating endpoints and may be nil.
func RegisterCustomer(e *echo.Echo, p *handler.PetHandler, r *handler.ReservationHandler, jwtSecret string, writes echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), anyRole())
	var limited []echo.MiddlewareFunc
	if writes != nil {
		limited = append(limited, writes)
	}

	g.GET("/pets", p.List)
	g.POST("/pets", p.Create, limited...)
	g.PUT("/pets/:id", p.Update)
	g.DELETE("/pets/:id", p.Delete)

	g.GET("/calendar/me", r.MyCalendar)
	g.POST("/reservations/quote", r.Quote)
	g.POST("/reservations", r.Submit, limited...)
	g.GET("/reservations", r.ListMine)
	g.DELETE("/reservations/:id", r.DeleteMine)
}

// RegisterAdmin registers the administrator endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	g.GET("/users", a.ListUsers)
	g.DELETE("/users/:id", a.DeleteUser)
	g.GET("/reservations", a.ListReservations)
	g.DELETE("/reservations/:id", a.DeleteReservation)
	g.GET("/occupancy", a.Occupancy)
}

func anyRole() echo.MiddlewareFunc {
	return middleware.RequireRole(model.RoleCustomer.Claim(), model.RoleAdmin.Claim())
}
