// Package booking implements the seat reservation coordinator: the
// sequence that validates a (show instance, seat) pair, takes the
// distributed lock, persists the cart entry, and later releases the
// lock keys when the cart is converted into an order or abandoned.
package booking

import "errors"

// Validation errors.  These mean the request itself was bad and
// are surfaced to the caller as client errors; retrying the same
// request will fail the same way.
var (
	ErrShowNotFound  = errors.New("show instance not found")
	ErrShowStarted   = errors.New("show instance already started")
	ErrShowCancelled = errors.New("show instance is cancelled")
	ErrSeatNotFound  = errors.New("seat not found")
	ErrSeatNotInHall = errors.New("seat does not belong to the show's hall")
)

// ErrAlreadyReserved covers every contention outcome: a confirmed
// reservation already exists, the lock is held by someone else, or
// the cart insert hit the unique constraint.  The caller cannot
// tell which layer rejected the attempt, only that the seat is
// taken and a different one should be picked.  Infrastructure
// failures are never folded into this error; a lock store outage
// propagates as lock.ErrStoreUnavailable instead.
var ErrAlreadyReserved = errors.New("seat already reserved")
