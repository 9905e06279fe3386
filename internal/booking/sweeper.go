package booking

import (
	"context"
	"log"
	"time"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/metrics"
	"github.com/stagegate/ticketing/internal/model"
)

// StaleCartStore deletes cart entries created before the cutoff
// and returns the deleted rows so their lock keys can be released.
type StaleCartStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]model.CartEntry, error)
}

// Sweeper is the reconciliation job for abandoned carts.  TTL
// expiry already frees the lock keys on its own; the sweeper
// additionally removes the stale cart rows (which the lock store
// knows nothing about) and deletes any lock keys still present,
// shortening the unavailability window for seats whose carts were
// simply walked away from.
type Sweeper struct {
	Carts    StaleCartStore
	Locks    LockManager
	MaxAge   time.Duration // cart age after which an entry is considered abandoned
	Interval time.Duration // delay between sweeps
}

// Run sweeps on a ticker until ctx is cancelled.  Individual sweep
// failures are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}

// Sweep performs one pass: delete cart entries older than MaxAge,
// then release their lock keys.  The delete commits first so a
// crash between the two steps leaks locks (bounded by TTL) rather
// than freeing seats that still have cart rows.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.MaxAge)
	swept, err := s.Carts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(swept) == 0 {
		return nil
	}
	metrics.SweptCartEntries.Add(float64(len(swept)))
	keys := make([]string, 0, len(swept))
	for _, c := range swept {
		keys = append(keys, lock.ReservationKey(c.ShowInstanceID, c.SeatID))
	}
	if err := s.Locks.Release(ctx, keys); err != nil {
		// The rows are gone either way; the keys age out via TTL.
		log.Printf("sweeper: releasing %d lock keys: %v", len(keys), err)
	}
	log.Printf("sweeper: removed %d stale cart entries", len(swept))
	return nil
}
