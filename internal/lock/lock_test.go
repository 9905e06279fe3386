package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationKey(t *testing.T) {
	assert.Equal(t, "lock:42_7", ReservationKey(42, 7))
	assert.Equal(t, "lock:1_1", ReservationKey(1, 1))
	// Distinct pairs must never collide.
	assert.NotEqual(t, ReservationKey(12, 3), ReservationKey(1, 23))
}

func TestAcquireMutualExclusion(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()
	key := ReservationKey(10, 20)

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := m.Acquire(ctx, key, "holder", time.Minute)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, winners, "exactly one caller should win the lock")
}

func TestReleaseFreesKey(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()
	key := ReservationKey(1, 2)

	ok, err := m.Acquire(ctx, key, "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Acquire(ctx, key, "b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Release(ctx, []string{key}))

	ok, err = m.Acquire(ctx, key, "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released key should be acquirable again")
}

func TestReleaseIsUnconditionalAndIdempotent(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()
	key := ReservationKey(3, 4)

	// Releasing a key that was never acquired is not an error.
	require.NoError(t, m.Release(ctx, []string{key}))
	// Nor is releasing twice.
	ok, err := m.Acquire(ctx, key, "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, m.Release(ctx, []string{key}))
	require.NoError(t, m.Release(ctx, []string{key}))
	// An empty batch is a no-op.
	require.NoError(t, m.Release(ctx, nil))
}

func TestReleaseBulk(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)
	ctx := context.Background()

	keys := []string{ReservationKey(5, 1), ReservationKey(5, 2), ReservationKey(5, 3)}
	for _, k := range keys {
		ok, err := m.Acquire(ctx, k, "u", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 3, store.Len())

	require.NoError(t, m.Release(ctx, keys))
	assert.Equal(t, 0, store.Len())
}

func TestTTLSelfHeals(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()
	key := ReservationKey(6, 7)

	ok, err := m.Acquire(ctx, key, "crasher", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	// Still held within the TTL.
	ok, err = m.Acquire(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(80 * time.Millisecond)

	// The holder never released; the TTL freed the seat anyway.
	ok, err = m.Acquire(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireValidation(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	_, err := m.Acquire(ctx, "", "h", time.Minute)
	assert.Error(t, err)

	_, err = m.Acquire(ctx, "lock:1_1", "h", 0)
	assert.Error(t, err)
}

// failingStore simulates a lock store outage.
type failingStore struct{}

func (failingStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}
func (failingStore) Delete(context.Context, ...string) error {
	return errors.New("connection refused")
}

func TestStoreFailureFailsClosed(t *testing.T) {
	m := NewManager(failingStore{})
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "lock:1_1", "h", time.Minute)
	assert.False(t, ok, "a store failure must never look like an acquired lock")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = m.Release(ctx, []string{"lock:1_1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestMemoryStorePurgesExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.SetIfAbsent(ctx, "k", "v", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, store.Len())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}
