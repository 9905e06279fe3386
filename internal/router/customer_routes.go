package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/handler"
	"github.com/stagegate/ticketing/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1/customer.
// All routes require a valid JWT and the CUSTOMER role.  Customers can
// reserve seats into their cart, inspect and prune the cart, and turn
// it into orders.
func RegisterCustomer(e *echo.Echo, cart *handler.CartHandler, orders *handler.OrderHandler, jwtSecret string) {
	g := e.Group(
		"/v1/customer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// ---- Cart ----
	// Reserving a seat takes the distributed lock and persists the
	// cart entry; contention surfaces as 409.
	g.POST("/cart", cart.Reserve)
	g.GET("/cart", cart.List)
	g.DELETE("/cart/:id", cart.Remove)

	// ---- Orders ----
	g.POST("/orders", orders.Create)
	g.GET("/orders", orders.List)
	g.POST("/orders/:id/confirm", orders.Confirm)
	g.POST("/orders/:id/cancel", orders.Cancel)
}
