package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/handler"    // admin handlers
	"github.com/stagegate/ticketing/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Venues ----
	g.POST("/venues", a.CreateVenue)
	// NOTE: Listing venues is handled by the public browse API.

	// ---- Halls ----
	// Creating a hall optionally generates its full seat grid.
	g.POST("/venues/:id/halls", a.CreateHall)

	// ---- Performances ----
	g.POST("/performances", a.CreatePerformance)

	// ---- Show instances ----
	g.POST("/halls/:id/shows", a.CreateShowInstance)
}
