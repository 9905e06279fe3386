package booking

import (
	"context"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/model"
)

// ReleaseForCarts frees the lock keys behind the given cart
// entries in a single bulk call.  It must run only after the
// corresponding database write has committed: on order
// confirmation the reservation rows are the source of truth by
// then, and on abandonment the cart rows are already gone.
// Releasing before commit would reopen the race window the lock
// exists to close.  A store failure is returned to the caller;
// the keys then leak until their TTL expires.
func (co *Coordinator) ReleaseForCarts(ctx context.Context, carts []model.CartEntry) error {
	if len(carts) == 0 {
		return nil
	}
	keys := make([]string, 0, len(carts))
	for _, c := range carts {
		keys = append(keys, lock.ReservationKey(c.ShowInstanceID, c.SeatID))
	}
	return co.Locks.Release(ctx, keys)
}
