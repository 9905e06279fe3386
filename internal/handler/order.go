package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/booking"
	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/payment"
	"github.com/stagegate/ticketing/internal/queue"
	"github.com/stagegate/ticketing/internal/repository"
	queue_publisher "github.com/stagegate/ticketing/internal/service"
)

// OrderHandler turns cart contents into orders and confirms them
// after payment.  Confirmation is the only place reservations are
// written; the whole order state change happens in one database
// transaction and lock keys are released only after it commits.
type OrderHandler struct {
	Orders       *repository.OrderRepo
	Carts        *repository.CartRepo
	Seats        *repository.SeatRepo
	Venues       *repository.VenueRepo
	Performances *repository.PerformanceRepo
	Booking      *booking.Coordinator
	Gateway      payment.Gateway
}

// NewOrderHandler constructs an OrderHandler and panics if any dependency is nil.
func NewOrderHandler(orders *repository.OrderRepo, carts *repository.CartRepo, seats *repository.SeatRepo, venues *repository.VenueRepo, perfs *repository.PerformanceRepo, co *booking.Coordinator, gw payment.Gateway) *OrderHandler {
	if orders == nil || carts == nil || seats == nil || venues == nil || perfs == nil || co == nil || gw == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{
		Orders:       orders,
		Carts:        carts,
		Seats:        seats,
		Venues:       venues,
		Performances: perfs,
		Booking:      co,
		Gateway:      gw,
	}
}

type orderResp struct {
	ID               uint64 `json:"id"`
	Status           string `json:"status"`
	TotalAmountCents uint32 `json:"total_amount_cents"`
	SeatCount        int    `json:"seat_count"`
}

// Create handles POST /v1/customer/orders.  It snapshots the user's
// cart into a PENDING order.  Cart entries and their lock keys stay
// in place until the order is confirmed or cancelled.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	entries, err := h.Carts.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(entries) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}
	o := &model.Order{UserID: userID, Status: "PENDING", TotalAmountCents: cartTotal(entries)}
	if err := h.Orders.CreateTx(ctx, tx, o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, orderResp{
		ID:               o.ID,
		Status:           o.Status,
		TotalAmountCents: o.TotalAmountCents,
		SeatCount:        len(entries),
	})
}

type confirmReq struct {
	PaymentRef string `json:"payment_ref"`
}

// Confirm handles POST /v1/customer/orders/:id/confirm.  The flow is:
// verify the payment with the gateway, then in one transaction mark
// the order PAID, write the reservations and clear the cart.  Lock
// keys are released only after the commit; on a duplicate-seat race
// the transaction rolls back and the stale lock ages out on its own.
func (h *OrderHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.PaymentRef) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref required"})
	}
	ref := strings.TrimSpace(req.PaymentRef)
	ctx := c.Request().Context()

	order, err := h.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.Status != "PENDING" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
	}

	// Talk to the gateway before opening the transaction; a slow
	// gateway must not hold database locks.
	if err := h.Gateway.Confirm(ctx, ref, uint64(order.TotalAmountCents)); err != nil {
		if errors.Is(err, payment.ErrNotSettled) {
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not settled"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment verification failed"})
	}

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Orders.MarkPaidTx(ctx, tx, orderID, ref); err != nil {
		if errors.Is(err, repository.ErrOrderNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update order failed"})
	}
	entries, err := h.Carts.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(entries) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cart is empty"})
	}
	// The payment covered the total snapshotted at order creation.
	// If the cart changed since (seats added or removed), the paid
	// amount no longer matches what would be reserved; reject and
	// roll back.
	if !cartMatchesOrder(order.TotalAmountCents, entries) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cart changed since the order was created"})
	}
	reservations := make([]model.Reservation, 0, len(entries))
	for _, e := range entries {
		reservations = append(reservations, model.Reservation{
			OrderID:        orderID,
			ShowInstanceID: e.ShowInstanceID,
			SeatID:         e.SeatID,
			PriceCents:     e.PriceCents,
		})
	}
	if err := h.Orders.CreateReservationsBulkTx(ctx, tx, reservations); err != nil {
		if errors.Is(err, repository.ErrDuplicateSeat) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a seat in this order was taken by someone else"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write reservations failed"})
	}
	if err := h.Carts.DeleteByUserTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear cart failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	// Seats are durably reserved; locks are no longer needed.
	if err := h.Booking.ReleaseForCarts(ctx, entries); err != nil {
		c.Logger().Errorf("release locks for order %d: %v", orderID, err)
	}

	// Publish outside the request path; a broker outage must not fail
	// a confirmed order.
	go h.publishConfirmed(orderID, userID, order.TotalAmountCents, entries)

	return c.JSON(http.StatusOK, orderResp{
		ID:               orderID,
		Status:           "PAID",
		TotalAmountCents: order.TotalAmountCents,
		SeatCount:        len(entries),
	})
}

// Cancel handles POST /v1/customer/orders/:id/cancel.  The pending
// order is cancelled, its cart entries removed and their lock keys
// released so the seats open up again.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

	if _, err := h.Orders.GetForUser(ctx, orderID, userID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Orders.CancelTx(ctx, tx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotPending) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel order failed"})
	}
	entries, err := h.Carts.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Carts.DeleteByUserTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear cart failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if err := h.Booking.ReleaseForCarts(ctx, entries); err != nil {
		c.Logger().Errorf("release locks for cancelled order %d: %v", orderID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/customer/orders and returns the user's orders
// with their seats, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// cartTotal sums the price of every entry in the cart.
func cartTotal(entries []model.CartEntry) uint32 {
	var total uint32
	for _, e := range entries {
		total += e.PriceCents
	}
	return total
}

// cartMatchesOrder reports whether the cart entries still sum to the
// total snapshotted when the order was created.
func cartMatchesOrder(orderTotalCents uint32, entries []model.CartEntry) bool {
	return cartTotal(entries) == orderTotalCents
}

// publishConfirmed enriches and emits the order.confirmed event.
// Lookups run on a fresh context since the request one is gone.
func (h *OrderHandler) publishConfirmed(orderID, userID uint64, totalCents uint32, entries []model.CartEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ev := queue.OrderConfirmedEvent{
		OrderID:          orderID,
		UserID:           userID,
		TotalAmountCents: uint64(totalCents),
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if len(entries) > 0 {
		ev.ShowInstanceID = entries[0].ShowInstanceID
		if si, err := h.Performances.Get(ctx, ev.ShowInstanceID); err == nil && si != nil {
			ev.StartsAt = si.StartsAt.UTC().Format(time.RFC3339)
			ev.EndsAt = si.EndsAt.UTC().Format(time.RFC3339)
			if p, err := h.Performances.GetPerformance(ctx, si.PerformanceID); err == nil {
				ev.PerformanceTitle = p.Title
			}
			if hall, err := h.Venues.GetHall(ctx, si.HallID); err == nil {
				ev.HallID = hall.ID
				ev.HallName = hall.Name
				if v, err := h.Venues.GetVenue(ctx, hall.VenueID); err == nil {
					ev.VenueID = v.ID
					ev.VenueName = v.Name
				}
			}
		}
	}
	for _, e := range entries {
		if s, err := h.Seats.Get(ctx, e.SeatID); err == nil && s != nil {
			ev.SeatLabels = append(ev.SeatLabels, fmt.Sprintf("%s%d", s.RowLabel, s.SeatNumber))
		}
	}
	_ = queue_publisher.PublishOrderConfirmed(ctx, ev)
}
