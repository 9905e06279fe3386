package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/repository"
)

// ---- fakes ----

type stubShows struct {
	show *model.ShowInstance
	err  error
}

func (s stubShows) Get(context.Context, uint64) (*model.ShowInstance, error) { return s.show, s.err }

type stubSeats struct {
	seat *model.Seat
	err  error
}

func (s stubSeats) Get(context.Context, uint64) (*model.Seat, error) { return s.seat, s.err }

type stubReservations struct {
	exists bool
	err    error
}

func (s stubReservations) ExistsForSeat(context.Context, uint64, uint64) (bool, error) {
	return s.exists, s.err
}

type recordingCarts struct {
	mu      sync.Mutex
	err     error
	created []model.CartEntry
}

func (c *recordingCarts) Create(_ context.Context, e *model.CartEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	e.ID = uint64(len(c.created) + 1)
	e.CreatedAt = time.Now().UTC()
	c.created = append(c.created, *e)
	return nil
}

// recordingLocks wraps a real manager and counts calls so tests can
// assert the lock store is not touched on fast-fail paths.
type recordingLocks struct {
	inner    *lock.Manager
	mu       sync.Mutex
	acquires []string
	holders  []string
	releases [][]string
}

func newRecordingLocks() *recordingLocks {
	return &recordingLocks{inner: lock.NewManager(lock.NewMemoryStore())}
}

func (l *recordingLocks) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	l.acquires = append(l.acquires, key)
	l.holders = append(l.holders, holder)
	l.mu.Unlock()
	return l.inner.Acquire(ctx, key, holder, ttl)
}

func (l *recordingLocks) Release(ctx context.Context, keys []string) error {
	l.mu.Lock()
	l.releases = append(l.releases, keys)
	l.mu.Unlock()
	return l.inner.Release(ctx, keys)
}

func futureShow() *model.ShowInstance {
	return &model.ShowInstance{
		ID:             100,
		HallID:         5,
		StartsAt:       time.Now().UTC().Add(2 * time.Hour),
		EndsAt:         time.Now().UTC().Add(4 * time.Hour),
		BasePriceCents: 2500,
		Status:         "SCHEDULED",
	}
}

func cancelledShow() *model.ShowInstance {
	s := futureShow()
	s.Status = "CANCELLED"
	return s
}

func hallSeat() *model.Seat {
	return &model.Seat{ID: 7, HallID: 5, RowLabel: "A", SeatNumber: 7, SeatType: "STANDARD", IsActive: true}
}

func newTestCoordinator(shows ShowReader, seats SeatReader, res ReservationReader, carts CartWriter, locks LockManager) *Coordinator {
	return NewCoordinator(shows, seats, res, carts, locks, time.Minute)
}

// ---- tests ----

func TestReserveSuccess(t *testing.T) {
	locks := newRecordingLocks()
	carts := &recordingCarts{}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, carts, locks)

	entry, err := co.Reserve(context.Background(), 9, 100, 7)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, uint64(9), entry.UserID)
	assert.Equal(t, uint64(100), entry.ShowInstanceID)
	assert.Equal(t, uint64(7), entry.SeatID)
	assert.Equal(t, uint32(2500), entry.PriceCents, "price is snapshotted from the show instance")

	require.Len(t, locks.acquires, 1)
	assert.Equal(t, lock.ReservationKey(100, 7), locks.acquires[0])
	assert.Equal(t, "9", locks.holders[0], "holder records the user for diagnostics")
	assert.Empty(t, locks.releases, "a successful reservation keeps its lock")
	assert.Len(t, carts.created, 1)
}

func TestReserveValidationSkipsLockStore(t *testing.T) {
	cases := []struct {
		name  string
		shows ShowReader
		seats SeatReader
		want  error
	}{
		{"show missing", stubShows{}, stubSeats{seat: hallSeat()}, ErrShowNotFound},
		{"seat missing", stubShows{show: futureShow()}, stubSeats{}, ErrSeatNotFound},
		{
			"seat in another hall",
			stubShows{show: futureShow()},
			stubSeats{seat: &model.Seat{ID: 7, HallID: 99}},
			ErrSeatNotInHall,
		},
		{
			"show already started",
			stubShows{show: &model.ShowInstance{ID: 100, HallID: 5, StartsAt: time.Now().UTC().Add(-time.Minute)}},
			stubSeats{seat: hallSeat()},
			ErrShowStarted,
		},
		{
			"show cancelled",
			stubShows{show: cancelledShow()},
			stubSeats{seat: hallSeat()},
			ErrShowCancelled,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			locks := newRecordingLocks()
			carts := &recordingCarts{}
			co := newTestCoordinator(tc.shows, tc.seats, stubReservations{}, carts, locks)

			_, err := co.Reserve(context.Background(), 9, 100, 7)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, locks.acquires, "validation failures must not touch the lock store")
			assert.Empty(t, carts.created)
		})
	}
}

func TestReserveExistingReservationSkipsLockStore(t *testing.T) {
	locks := newRecordingLocks()
	carts := &recordingCarts{}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{exists: true}, carts, locks)

	_, err := co.Reserve(context.Background(), 9, 100, 7)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
	assert.Empty(t, locks.acquires, "a confirmed reservation fails fast without a lock round trip")
	assert.Empty(t, carts.created)
}

func TestReserveContention(t *testing.T) {
	locks := newRecordingLocks()
	carts := &recordingCarts{}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, carts, locks)

	// Another caller already holds the key.
	ok, err := locks.Acquire(context.Background(), lock.ReservationKey(100, 7), "other", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = co.Reserve(context.Background(), 9, 100, 7)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
	assert.Empty(t, carts.created, "a lost lock race must not write a cart entry")
}

func TestReserveStoreOutageFailsClosed(t *testing.T) {
	locks := lock.NewManager(failingStore{})
	carts := &recordingCarts{}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, carts, locks)

	_, err := co.Reserve(context.Background(), 9, 100, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, lock.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrAlreadyReserved, "an outage is not contention")
	assert.Empty(t, carts.created, "never proceed unlocked when the store is down")
}

func TestReserveDuplicateRowLeavesLockToExpire(t *testing.T) {
	locks := newRecordingLocks()
	carts := &recordingCarts{err: repository.ErrDuplicateSeat}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, carts, locks)

	_, err := co.Reserve(context.Background(), 9, 100, 7)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
	assert.Empty(t, locks.releases, "the lock must age out, not be deleted, after a unique-constraint race")
}

func TestReservePersistFailureReleasesLock(t *testing.T) {
	locks := newRecordingLocks()
	carts := &recordingCarts{err: errors.New("db gone")}
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, carts, locks)

	_, err := co.Reserve(context.Background(), 9, 100, 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyReserved)
	require.Len(t, locks.releases, 1)
	assert.Equal(t, []string{lock.ReservationKey(100, 7)}, locks.releases[0])
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	carts := &recordingCarts{}
	co := newTestCoordinator(
		stubShows{show: futureShow()},
		stubSeats{seat: hallSeat()},
		stubReservations{},
		carts,
		lock.NewManager(lock.NewMemoryStore()),
	)

	const callers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, conflicts int
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := co.Reserve(context.Background(), user, 100, 7)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyReserved):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one caller claims the seat")
	assert.Equal(t, callers-1, conflicts)
	assert.Len(t, carts.created, 1)
}

// failingStore mirrors a lock store outage at the Store level.
type failingStore struct{}

func (failingStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) Delete(context.Context, ...string) error {
	return errors.New("connection refused")
}
