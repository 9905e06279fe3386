package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus metrics endpoint

	"github.com/stagegate/ticketing/internal/handler"    // import the handlers that implement business logic
	"github.com/stagegate/ticketing/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the Prometheus scrape
// endpoint.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	// Expose collector output for Prometheus scrapes.
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register,
	// email verification, login and token exchange.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	// Confirm the emailed verification code and activate the account.
	g.POST("/verify", a.VerifyEmail)
	// Request a fresh verification code for an unverified account.
	g.POST("/resend", a.ResendCode)
	g.POST("/login", a.Login)
	// Rotate the refresh token and issue a new pair.
	g.POST("/refresh", a.Refresh)
	// Issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication; the handler accepts a
	// refresh token in the body or a Bearer token in the header.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  All handlers registered
	// on this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterCatalog registers unauthenticated browse endpoints on the provided
// Echo instance.  The handlers return sanitized data for venues, halls and
// show instances.  These routes do not apply any JWT or role middleware and
// are intended for guest users.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler) {
	// Expose list of all venues
	e.GET("/v1/venues", h.GetVenues)
	// List halls of a specific venue
	e.GET("/v1/venues/:id/halls", h.GetHallsByVenue)
	// List upcoming show instances in a specific hall
	e.GET("/v1/halls/:id/shows", h.GetShowsByHall)
	// Seat availability for a specific show.  Status values are FREE,
	// HELD or RESERVED; HELD reflects cart holds and is soft state.
	e.GET("/v1/shows/:id/seats", h.GetShowSeats)
	// Search upcoming shows by title, venue or city with pagination.
	e.GET("/v1/search/shows", h.SearchShows)
}
