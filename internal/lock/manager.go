package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagegate/ticketing/internal/metrics"
)

// ErrStoreUnavailable wraps any transport or server error from the
// lock store.  Callers must treat it as "lock not acquired" (fail
// closed) and must not fall back to proceeding unlocked.  It is
// kept distinct from normal contention so operators can tell an
// infrastructure outage from users racing for the same seat.
var ErrStoreUnavailable = errors.New("lock store unavailable")

// DefaultTTL is the safety window after which an unreleased lock
// self-heals.  A holder that crashes between acquire and persist
// makes the seat unavailable for at most this long.
const DefaultTTL = 30 * time.Minute

// ReservationKey derives the lock key for a (show instance, seat)
// pair.  One key per seat per show instance: the lock gates the
// contested resource itself, not the request or the user.
func ReservationKey(showInstanceID, seatID uint64) string {
	return fmt.Sprintf("lock:%d_%d", showInstanceID, seatID)
}

// Manager provides try-lock mutual exclusion for caller-supplied
// keys against a Store.  There is no queueing: a caller that loses
// the race gets false immediately and is expected to give up, not
// retry the same seat.
type Manager struct {
	store Store
}

// NewManager returns a Manager backed by the given store.
func NewManager(store Store) *Manager {
	if store == nil {
		panic("nil store passed to NewManager")
	}
	return &Manager{store: store}
}

// Acquire attempts to take the lock identified by key on behalf of
// holder.  The holder value is recorded as the lock entry for
// diagnostics only; release does not check it.  It returns true
// when this caller now holds the lock and false when another
// holder does.  A store failure returns false together with an
// error wrapping ErrStoreUnavailable.
func (m *Manager) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("lock: empty key")
	}
	if ttl <= 0 {
		return false, errors.New("lock: non-positive ttl")
	}
	ok, err := m.store.SetIfAbsent(ctx, key, holder, ttl)
	if err != nil {
		metrics.LockStoreErrors.Inc()
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		metrics.LockContention.Inc()
	}
	return ok, nil
}

// Release deletes all given keys unconditionally in one store
// call.  There is no ownership check: correctness relies on
// callers only ever releasing keys for entries they created.
// Releasing an already-absent key is not an error.  A store
// failure is surfaced so the caller can log it; the affected keys
// then leak until their TTL expires.
func (m *Manager) Release(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		metrics.LockStoreErrors.Inc()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
