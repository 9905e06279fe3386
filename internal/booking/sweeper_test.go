package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
)

type stubStaleCarts struct {
	stale   []model.CartEntry
	err     error
	cutoffs []time.Time
}

func (s *stubStaleCarts) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]model.CartEntry, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	if s.err != nil {
		return nil, s.err
	}
	return s.stale, nil
}

func TestSweepReleasesStaleLocks(t *testing.T) {
	store := lock.NewMemoryStore()
	manager := lock.NewManager(store)
	ctx := context.Background()

	stale := []model.CartEntry{
		{ID: 1, ShowInstanceID: 10, SeatID: 1},
		{ID: 2, ShowInstanceID: 10, SeatID: 2},
	}
	for _, e := range stale {
		ok, err := manager.Acquire(ctx, lock.ReservationKey(e.ShowInstanceID, e.SeatID), "u", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
	}

	carts := &stubStaleCarts{stale: stale}
	sw := &Sweeper{Carts: carts, Locks: manager, MaxAge: 30 * time.Minute, Interval: time.Minute}

	require.NoError(t, sw.Sweep(ctx))
	assert.Equal(t, 0, store.Len(), "stale entries' lock keys are released")

	// The cutoff sits MaxAge in the past.
	require.Len(t, carts.cutoffs, 1)
	assert.WithinDuration(t, time.Now().UTC().Add(-30*time.Minute), carts.cutoffs[0], 2*time.Second)
}

func TestSweepNoStaleEntries(t *testing.T) {
	carts := &stubStaleCarts{}
	sw := &Sweeper{Carts: carts, Locks: lock.NewManager(lock.NewMemoryStore()), MaxAge: time.Minute, Interval: time.Minute}

	require.NoError(t, sw.Sweep(context.Background()))
}

func TestSweepPropagatesStoreError(t *testing.T) {
	carts := &stubStaleCarts{err: errors.New("db down")}
	sw := &Sweeper{Carts: carts, Locks: lock.NewManager(lock.NewMemoryStore()), MaxAge: time.Minute, Interval: time.Minute}

	assert.Error(t, sw.Sweep(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	carts := &stubStaleCarts{}
	sw := &Sweeper{Carts: carts, Locks: lock.NewManager(lock.NewMemoryStore()), MaxAge: time.Minute, Interval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	assert.NotEmpty(t, carts.cutoffs, "ticker should have fired at least once")
}
