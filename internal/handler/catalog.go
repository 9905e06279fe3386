// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse venues, halls and show instances without
// requiring authentication. Sensitive fields (owner IDs, timestamps, etc.)
// are filtered from responses.

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/repository"
)

// CatalogHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type CatalogHandler struct {
	Venues       *repository.VenueRepo       // provides access to venue and hall data
	Seats        *repository.SeatRepo        // provides access to seat data
	Performances *repository.PerformanceRepo // provides access to performances and show instances
	Carts        *repository.CartRepo        // provides cart holds for availability
	Orders       *repository.OrderRepo       // provides confirmed reservations for availability
}

// PublicVenue represents a venue exposed via the public API. It contains
// only safe fields.
type PublicVenue struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// PublicHall represents a hall exposed via the public API.
type PublicHall struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	SeatRows *uint32 `json:"seat_rows,omitempty"`
	SeatCols *uint32 `json:"seat_cols,omitempty"`
}

// PublicShow represents a show instance in list responses.
type PublicShow struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents uint32    `json:"price_cents"`
}

// PublicSeat is a single seat in the availability map of a show.
type PublicSeat struct {
	ID         uint64 `json:"id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	Status     string `json:"status"` // FREE | HELD | RESERVED
}

// GetVenues returns a list of all venues accessible to unauthenticated users.
// Response JSON contains an "items" array of PublicVenue.
func (h *CatalogHandler) GetVenues(c echo.Context) error {
	ctx := c.Request().Context()
	venues, err := h.Venues.ListVenues(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicVenue, 0, len(venues))
	for _, v := range venues {
		out = append(out, PublicVenue{ID: v.ID, Name: v.Name, City: v.City})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetHallsByVenue lists halls of a venue for unauthenticated users. It validates
// the venue exists, then returns only non-sensitive fields.
func (h *CatalogHandler) GetHallsByVenue(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// ensure venue exists
	if _, err := h.Venues.GetVenue(ctx, id); err != nil {
		if err == repository.ErrVenueNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	halls, err := h.Venues.ListHallsByVenue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicHall, 0, len(halls))
	for _, hall := range halls {
		out = append(out, PublicHall{ID: hall.ID, Name: hall.Name, SeatRows: hall.SeatRows, SeatCols: hall.SeatCols})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShowsByHall lists upcoming show instances in a hall for
// unauthenticated users. It ensures the hall exists, then returns each
// instance's ID, performance title and schedule.
func (h *CatalogHandler) GetShowsByHall(c echo.Context) error {
	ctx := c.Request().Context()
	hallID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Venues.GetHall(ctx, hallID); err != nil {
		if err == repository.ErrHallNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	instances, err := h.Performances.ListByHall(ctx, hallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicShow, 0, len(instances))
	for _, si := range instances {
		p, err := h.Performances.GetPerformance(ctx, si.PerformanceID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		out = append(out, PublicShow{
			ID:         si.ID,
			Title:      p.Title,
			StartsAt:   si.StartsAt,
			EndsAt:     si.EndsAt,
			PriceCents: si.BasePriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShowSeats returns the full seat map of a show instance with
// per-seat availability.  A seat is RESERVED when a confirmed
// reservation exists, HELD when it sits in someone's cart, and FREE
// otherwise.  HELD is a soft state and may flip back to FREE when
// the hold expires.
func (h *CatalogHandler) GetShowSeats(c echo.Context) error {
	ctx := c.Request().Context()
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	si, err := h.Performances.Get(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if si == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	seats, err := h.Seats.ListByHall(ctx, si.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reserved, err := h.Orders.ReservedSeatIDs(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	held, err := h.Carts.HeldSeatIDs(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reservedSet := make(map[uint64]struct{}, len(reserved))
	for _, id := range reserved {
		reservedSet[id] = struct{}{}
	}
	heldSet := make(map[uint64]struct{}, len(held))
	for _, id := range held {
		heldSet[id] = struct{}{}
	}

	out := make([]PublicSeat, 0, len(seats))
	for _, s := range seats {
		status := "FREE"
		if _, ok := reservedSet[s.ID]; ok {
			status = "RESERVED"
		} else if _, ok := heldSet[s.ID]; ok {
			status = "HELD"
		}
		out = append(out, PublicSeat{
			ID:         s.ID,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			Status:     status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_instance_id": showID,
		"starts_at":        si.StartsAt,
		"price_cents":      si.BasePriceCents,
		"seats":            out,
	})
}

// SearchShows handles GET /v1/shows/search.  It accepts optional
// title, venue, city and when query parameters plus page/page_size
// and returns a paginated list of upcoming show instances.
func (h *CatalogHandler) SearchShows(c echo.Context) error {
	q := showSearchQuery(c)

	rows, total, err := h.Performances.SearchUpcoming(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     rows,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// showSearchQuery parses and clamps the search query parameters.
// Missing or out-of-range pagination falls back to page 1 / size 20;
// size is capped at 100.
func showSearchQuery(c echo.Context) repository.ShowSearchQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}
	return repository.ShowSearchQuery{
		Title:      strings.TrimSpace(c.QueryParam("title")),
		Venue:      strings.TrimSpace(c.QueryParam("venue")),
		City:       strings.TrimSpace(c.QueryParam("city")),
		TimeFilter: strings.TrimSpace(c.QueryParam("when")),
		Page:       page,
		PageSize:   ps,
	}
}
