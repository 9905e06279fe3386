package handler

import (
	"database/sql" // sentinel errors returned from repository
	"errors"       // errors.Is comparisons
	"net/http"     // HTTP status codes
	"strconv"      // parsing path parameters

	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/booking"
	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/repository"
)

// CartHandler serves the customer cart endpoints.  Seat selection
// goes through the booking coordinator, which owns the distributed
// lock acquisition; this handler only translates its error taxonomy
// into HTTP statuses.
type CartHandler struct {
	Booking *booking.Coordinator
	Carts   *repository.CartRepo
}

// NewCartHandler constructs a CartHandler.  Both dependencies must be non-nil.
func NewCartHandler(co *booking.Coordinator, carts *repository.CartRepo) *CartHandler {
	if co == nil || carts == nil {
		panic("nil dependency passed to NewCartHandler")
	}
	return &CartHandler{Booking: co, Carts: carts}
}

type reserveReq struct {
	ShowInstanceID uint64 `json:"show_instance_id"`
	SeatID         uint64 `json:"seat_id"`
}

type cartEntryResp struct {
	ID             uint64 `json:"id"`
	ShowInstanceID uint64 `json:"show_instance_id"`
	SeatID         uint64 `json:"seat_id"`
	PriceCents     uint32 `json:"price_cents"`
	CreatedAt      string `json:"created_at"`
}

func toCartEntryResp(e *model.CartEntry) cartEntryResp {
	return cartEntryResp{
		ID:             e.ID,
		ShowInstanceID: e.ShowInstanceID,
		SeatID:         e.SeatID,
		PriceCents:     e.PriceCents,
		CreatedAt:      e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// Reserve handles POST /v1/customer/cart.  It attempts to take the
// seat for the current user and returns 201 with the cart entry on
// success.  Contended seats yield 409, unknown shows or seats 404,
// invalid selections 400 and an unreachable lock store 503.
func (h *CartHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ShowInstanceID == 0 || req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_instance_id and seat_id are required"})
	}

	entry, err := h.Booking.Reserve(c.Request().Context(), userID, req.ShowInstanceID, req.SeatID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, booking.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, booking.ErrShowStarted):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "show has already started"})
		case errors.Is(err, booking.ErrShowCancelled):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "show has been cancelled"})
		case errors.Is(err, booking.ErrSeatNotInHall):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat does not belong to this show's hall"})
		case errors.Is(err, booking.ErrAlreadyReserved):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is already taken"})
		case errors.Is(err, lock.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservation service temporarily unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
	return c.JSON(http.StatusCreated, toCartEntryResp(entry))
}

// List handles GET /v1/customer/cart and returns the user's current
// cart entries, newest first.
func (h *CartHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Carts.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]cartEntryResp, 0, len(entries))
	var total uint64
	for i := range entries {
		out = append(out, toCartEntryResp(&entries[i]))
		total += uint64(entries[i].PriceCents)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total_cents": total})
}

// Remove handles DELETE /v1/customer/cart/:id.  The entry is removed
// and its lock key released so the seat opens up immediately instead
// of waiting for the TTL.
func (h *CartHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || entryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart entry id"})
	}
	ctx := c.Request().Context()

	entry, err := h.Carts.GetForUser(ctx, entryID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cart entry not found"})
		}
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Carts.Delete(ctx, entryID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	// Row is gone; releasing the lock after the delete keeps the seat
	// guarded until the durable state no longer claims it.
	if err := h.Booking.ReleaseForCarts(ctx, []model.CartEntry{*entry}); err != nil {
		c.Logger().Errorf("release lock for cart entry %d: %v", entryID, err)
	}
	return c.NoContent(http.StatusNoContent)
}
