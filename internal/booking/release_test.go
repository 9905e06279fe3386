package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
)

func TestReleaseForCartsFreesSeats(t *testing.T) {
	store := lock.NewMemoryStore()
	manager := lock.NewManager(store)
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, &recordingCarts{}, manager)
	ctx := context.Background()

	entries := []model.CartEntry{
		{ShowInstanceID: 100, SeatID: 1},
		{ShowInstanceID: 100, SeatID: 2},
		{ShowInstanceID: 200, SeatID: 1},
	}
	for _, e := range entries {
		ok, err := manager.Acquire(ctx, lock.ReservationKey(e.ShowInstanceID, e.SeatID), "u", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 3, store.Len())

	require.NoError(t, co.ReleaseForCarts(ctx, entries))
	assert.Equal(t, 0, store.Len(), "every cart entry's key is released in one pass")

	// Seats are immediately acquirable again.
	ok, err := manager.Acquire(ctx, lock.ReservationKey(100, 1), "v", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseForCartsEmpty(t *testing.T) {
	locks := newRecordingLocks()
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, &recordingCarts{}, locks)

	require.NoError(t, co.ReleaseForCarts(context.Background(), nil))
	assert.Empty(t, locks.releases)
}

func TestReleaseForCartsKeyDerivation(t *testing.T) {
	locks := newRecordingLocks()
	co := newTestCoordinator(stubShows{show: futureShow()}, stubSeats{seat: hallSeat()}, stubReservations{}, &recordingCarts{}, locks)

	entries := []model.CartEntry{{ShowInstanceID: 8, SeatID: 15}}
	require.NoError(t, co.ReleaseForCarts(context.Background(), entries))
	require.Len(t, locks.releases, 1)
	assert.Equal(t, []string{lock.ReservationKey(8, 15)}, locks.releases[0])
}
