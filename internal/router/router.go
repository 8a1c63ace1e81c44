// Package router wires handlers to their routes and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tischplan/restaurant-reservation/internal/handler"
	"github.com/tischplan/restaurant-reservation/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication and no
// caching. Currently only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and returns the
// protected /v1 group the other owner-facing routes attach to. Token
// acquisition lives under /v1/auth and is open; everything on the
// returned group requires a valid access token with the OWNER role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) *echo.Group {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token and issues a fresh pair.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes the refresh token in the body; it does not require
	// a live access token so an expired session can still be closed.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER"))
	auth.GET("/me", a.Me)
	return auth
}

// RegisterOwner registers the restaurant, business hour and table
// management endpoints on the protected group.
func RegisterOwner(auth *echo.Group, o *handler.OwnerHandler) {
	auth.POST("/restaurants", o.CreateRestaurant)
	auth.GET("/restaurants/mine", o.ListMyRestaurants)
	auth.PUT("/restaurants/:id", o.UpdateRestaurant)
	auth.DELETE("/restaurants/:id", o.DeleteRestaurant)
	auth.PUT("/restaurants/:id/hours", o.ReplaceBusinessHours)

	auth.POST("/restaurants/:id/tables", o.CreateTable)
	auth.PUT("/tables/:id", o.UpdateTable)
	auth.DELETE("/tables/:id", o.DeleteTable)
}

// RegisterReservations registers the reservation endpoints on the
// protected group: batch creation with table assignment, dry-run
// validation, search and single-reservation management.
func RegisterReservations(auth *echo.Group, r *handler.ReservationHandler) {
	auth.POST("/restaurants/:id/reservations", r.CreateForRestaurant)
	auth.POST("/restaurants/:id/validate-reservation", r.ValidateForRestaurant)
	auth.POST("/tables/:id/reservations", r.CreateForTable)
	auth.POST("/tables/:id/validate-reservation", r.ValidateForTable)

	auth.GET("/reservations", r.Search)
	auth.GET("/reservations/:id", r.Get)
	auth.PUT("/reservations/:id", r.Update)
	auth.DELETE("/reservations/:id", r.Delete)
}

// RegisterPublic registers the unauthenticated browse endpoints.
// cache may be nil; when present it is the redis response cache
// applied to these read-only routes.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{}
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/restaurants", p.ListRestaurants, mw...)
	e.GET("/v1/restaurants/:id", p.GetRestaurant, mw...)
	e.GET("/v1/restaurants/:id/tables", p.ListTables, mw...)
	e.GET("/v1/restaurants/:id/hours", p.ListBusinessHours, mw...)
}
