package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/ticketing/internal/booking"
	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/repository"
)

type fakeShows struct{ show *model.ShowInstance }

func (f fakeShows) Get(context.Context, uint64) (*model.ShowInstance, error) { return f.show, nil }

type fakeSeats struct{ seat *model.Seat }

func (f fakeSeats) Get(context.Context, uint64) (*model.Seat, error) { return f.seat, nil }

type fakeReservations struct{ exists bool }

func (f fakeReservations) ExistsForSeat(context.Context, uint64, uint64) (bool, error) {
	return f.exists, nil
}

type fakeCarts struct{ err error }

func (f fakeCarts) Create(_ context.Context, e *model.CartEntry) error {
	if f.err != nil {
		return f.err
	}
	e.ID = 1
	e.CreatedAt = time.Now().UTC()
	return nil
}

func scheduledShow() *model.ShowInstance {
	return &model.ShowInstance{
		ID:             100,
		HallID:         5,
		StartsAt:       time.Now().UTC().Add(time.Hour),
		EndsAt:         time.Now().UTC().Add(3 * time.Hour),
		BasePriceCents: 1500,
		Status:         "SCHEDULED",
	}
}

func reserveRequest(t *testing.T, co *booking.Coordinator, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/customer/cart", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(9))

	h := NewCartHandler(co, repository.NewCartRepo(nil))
	require.NoError(t, h.Reserve(c))
	return rec
}

func newCoordinator(shows booking.ShowReader, seats booking.SeatReader, res booking.ReservationReader, carts booking.CartWriter, locks booking.LockManager) *booking.Coordinator {
	return booking.NewCoordinator(shows, seats, res, carts, locks, time.Minute)
}

func TestReserveEndpointSuccess(t *testing.T) {
	co := newCoordinator(
		fakeShows{show: scheduledShow()},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 5, RowLabel: "A", SeatNumber: 7}},
		fakeReservations{},
		fakeCarts{},
		lock.NewManager(lock.NewMemoryStore()),
	)

	rec := reserveRequest(t, co, `{"show_instance_id":100,"seat_id":7}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price_cents":1500`)
}

func TestReserveEndpointConflict(t *testing.T) {
	manager := lock.NewManager(lock.NewMemoryStore())
	// Someone else holds the seat.
	ok, err := manager.Acquire(context.Background(), lock.ReservationKey(100, 7), "other", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	co := newCoordinator(
		fakeShows{show: scheduledShow()},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 5}},
		fakeReservations{},
		fakeCarts{},
		manager,
	)

	rec := reserveRequest(t, co, `{"show_instance_id":100,"seat_id":7}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReserveEndpointShowNotFound(t *testing.T) {
	co := newCoordinator(
		fakeShows{},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 5}},
		fakeReservations{},
		fakeCarts{},
		lock.NewManager(lock.NewMemoryStore()),
	)

	rec := reserveRequest(t, co, `{"show_instance_id":100,"seat_id":7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveEndpointSeatWrongHall(t *testing.T) {
	co := newCoordinator(
		fakeShows{show: scheduledShow()},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 99}},
		fakeReservations{},
		fakeCarts{},
		lock.NewManager(lock.NewMemoryStore()),
	)

	rec := reserveRequest(t, co, `{"show_instance_id":100,"seat_id":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type downStore struct{}

func (downStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, context.DeadlineExceeded
}
func (downStore) Delete(context.Context, ...string) error { return context.DeadlineExceeded }

func TestReserveEndpointStoreDown(t *testing.T) {
	co := newCoordinator(
		fakeShows{show: scheduledShow()},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 5}},
		fakeReservations{},
		fakeCarts{},
		lock.NewManager(downStore{}),
	)

	rec := reserveRequest(t, co, `{"show_instance_id":100,"seat_id":7}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReserveEndpointMissingFields(t *testing.T) {
	co := newCoordinator(
		fakeShows{show: scheduledShow()},
		fakeSeats{seat: &model.Seat{ID: 7, HallID: 5}},
		fakeReservations{},
		fakeCarts{},
		lock.NewManager(lock.NewMemoryStore()),
	)

	rec := reserveRequest(t, co, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
