package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/repository"
)

// AdminHandler bundles repositories for administrators to manage
// venues, halls, seat layouts, performances and show instances.
// All methods assume JWT authentication and role validation have
// already run in middleware; ownership of venues and halls is
// still enforced per request.
type AdminHandler struct {
	Venues       *repository.VenueRepo       // venue and hall persistence
	Seats        *repository.SeatRepo        // seat persistence
	Performances *repository.PerformanceRepo // performance and show instance persistence
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil
func NewAdminHandler(venues *repository.VenueRepo, seats *repository.SeatRepo, perfs *repository.PerformanceRepo) *AdminHandler {
	if venues == nil || seats == nil || perfs == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Venues: venues, Seats: seats, Performances: perfs}
}

// CreateVenue handles POST /v1/admin/venues.
func (h *AdminHandler) CreateVenue(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Name string `json:"name"`
		City string `json:"city"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}

	v := &model.Venue{OwnerID: userID, Name: req.Name, City: req.City}
	if err := h.Venues.CreateVenue(c.Request().Context(), v); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": v.ID, "name": v.Name, "city": v.City})
}

// CreateHall handles POST /v1/admin/venues/:id/halls.  When seat_rows
// and seat_cols are provided the full seat grid is generated with
// alphabetical row labels (A..Z, AA..).
func (h *AdminHandler) CreateHall(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	venueID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req struct {
		Name     string  `json:"name"`
		SeatRows *uint32 `json:"seat_rows"`
		SeatCols *uint32 `json:"seat_cols"`
		SeatType string  `json:"seat_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if (req.SeatRows == nil) != (req.SeatCols == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_rows and seat_cols must be provided together"})
	}
	if req.SeatRows != nil && (*req.SeatRows == 0 || *req.SeatCols == 0 || *req.SeatRows > 200 || *req.SeatCols > 200) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_rows and seat_cols must be between 1 and 200"})
	}
	seatType := strings.ToUpper(strings.TrimSpace(req.SeatType))
	if seatType == "" {
		seatType = "STANDARD"
	}

	ctx := c.Request().Context()
	hall := &model.Hall{VenueID: venueID, Name: req.Name, SeatRows: req.SeatRows, SeatCols: req.SeatCols, IsActive: true}
	if err := h.Venues.CreateHall(ctx, userID, hall); err != nil {
		switch err {
		case repository.ErrVenueNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your venue"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall name already used in this venue"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hall failed"})
	}

	var created int
	if req.SeatRows != nil {
		rows := int(*req.SeatRows)
		cols := int(*req.SeatCols)
		seats := make([]model.Seat, 0, rows*cols)
		for r := 0; r < rows; r++ {
			label := indexToRowLabel(r)
			for n := 1; n <= cols; n++ {
				seats = append(seats, model.Seat{
					HallID:     hall.ID,
					RowLabel:   label,
					SeatNumber: uint32(n),
					SeatType:   seatType,
					IsActive:   true,
				})
			}
		}
		if err := h.Seats.CreateBulk(ctx, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
		}
		created = len(seats)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":            hall.ID,
		"name":          hall.Name,
		"seats_created": created,
	})
}

// CreatePerformance handles POST /v1/admin/performances.
func (h *AdminHandler) CreatePerformance(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		RuntimeMin  uint32  `json:"runtime_min"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.RuntimeMin == 0 || req.RuntimeMin > 24*60 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "runtime_min must be between 1 and 1440"})
	}

	p := &model.Performance{Title: req.Title, Description: req.Description, RuntimeMin: req.RuntimeMin}
	if err := h.Performances.CreatePerformance(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create performance failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID, "title": p.Title})
}

// CreateShowInstance handles POST /v1/admin/halls/:id/shows.  The
// end time defaults to starts_at plus the performance runtime when
// not provided.  Times are RFC3339 and stored in UTC.
func (h *AdminHandler) CreateShowInstance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hallID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hallID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hall id"})
	}
	var req struct {
		PerformanceID  uint64 `json:"performance_id"`
		StartsAt       string `json:"starts_at"`
		EndsAt         string `json:"ends_at"`
		BasePriceCents uint32 `json:"base_price_cents"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PerformanceID == 0 || strings.TrimSpace(req.StartsAt) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "performance_id and starts_at are required"})
	}
	if req.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents is required"})
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	startsAt = startsAt.UTC()
	if startsAt.Before(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx := c.Request().Context()

	owner, err := h.Venues.HallOwner(ctx, hallID)
	if err != nil {
		if err == repository.ErrHallNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if owner != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hall"})
	}

	p, err := h.Performances.GetPerformance(ctx, req.PerformanceID)
	if err != nil {
		if err == repository.ErrPerformanceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "performance not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	endsAt := startsAt.Add(time.Duration(p.RuntimeMin) * time.Minute)
	if strings.TrimSpace(req.EndsAt) != "" {
		endsAt, err = time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
		}
		endsAt = endsAt.UTC()
	}
	if !endsAt.After(startsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	si := &model.ShowInstance{
		PerformanceID:  req.PerformanceID,
		HallID:         hallID,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		BasePriceCents: req.BasePriceCents,
		Status:         "SCHEDULED",
	}
	if err := h.Performances.CreateShowInstance(ctx, si); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall already booked for this time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          si.ID,
		"starts_at":   si.StartsAt,
		"ends_at":     si.EndsAt,
		"price_cents": si.BasePriceCents,
	})
}
