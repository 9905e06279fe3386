package booking

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/stagegate/ticketing/internal/lock"
	"github.com/stagegate/ticketing/internal/metrics"
	"github.com/stagegate/ticketing/internal/model"
	"github.com/stagegate/ticketing/internal/repository"
)

// LockManager is the slice of the lock package the coordinator
// needs.  It is an interface so tests can assert that contention
// short-circuits before the lock store is ever touched.
type LockManager interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, keys []string) error
}

// ShowReader loads show instances.  A nil instance with a nil
// error means the instance does not exist.
type ShowReader interface {
	Get(ctx context.Context, id uint64) (*model.ShowInstance, error)
}

// SeatReader loads seats.  A nil seat with a nil error means the
// seat does not exist.
type SeatReader interface {
	Get(ctx context.Context, id uint64) (*model.Seat, error)
}

// ReservationReader answers whether a confirmed reservation
// already covers a (show instance, seat) pair.
type ReservationReader interface {
	ExistsForSeat(ctx context.Context, showInstanceID, seatID uint64) (bool, error)
}

// CartWriter persists cart entries.  Create must return
// repository.ErrDuplicateSeat when the (show_instance_id, seat_id)
// unique constraint rejects the row.
type CartWriter interface {
	Create(ctx context.Context, e *model.CartEntry) error
}

// Coordinator runs the reservation attempt for a single seat.
// Three layers protect the at-most-one-claim invariant: the
// read-check fails fast without touching the lock store, the lock
// is the primary concurrency gate, and the unique constraint on
// cart_entries is the durable backstop when the lock TTL expires
// mid-request or the store fails over.
type Coordinator struct {
	Shows        ShowReader
	Seats        SeatReader
	Reservations ReservationReader
	Carts        CartWriter
	Locks        LockManager
	TTL          time.Duration // lock lifetime; lock.DefaultTTL when zero
}

// NewCoordinator constructs a Coordinator.  All dependencies must
// be non-nil.
func NewCoordinator(shows ShowReader, seats SeatReader, reservations ReservationReader, carts CartWriter, locks LockManager, ttl time.Duration) *Coordinator {
	if shows == nil || seats == nil || reservations == nil || carts == nil || locks == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	if ttl <= 0 {
		ttl = lock.DefaultTTL
	}
	return &Coordinator{Shows: shows, Seats: seats, Reservations: reservations, Carts: carts, Locks: locks, TTL: ttl}
}

// Reserve claims the given seat for the given user on the given
// show instance.  On success the created cart entry is returned.
// Failure modes:
//   - ErrShowNotFound / ErrShowStarted / ErrShowCancelled /
//     ErrSeatNotFound / ErrSeatNotInHall: the request is invalid;
//     nothing was locked or written.
//   - ErrAlreadyReserved: the seat is taken (existing reservation,
//     lock held by another caller, or unique-constraint race).
//   - an error wrapping lock.ErrStoreUnavailable: the lock store
//     is down; the attempt fails closed.
func (co *Coordinator) Reserve(ctx context.Context, userID, showInstanceID, seatID uint64) (*model.CartEntry, error) {
	show, err := co.Shows.Get(ctx, showInstanceID)
	if err != nil {
		metrics.ReservationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if show == nil {
		metrics.ReservationAttempts.WithLabelValues("validation").Inc()
		return nil, ErrShowNotFound
	}
	seat, err := co.Seats.Get(ctx, seatID)
	if err != nil {
		metrics.ReservationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if seat == nil {
		metrics.ReservationAttempts.WithLabelValues("validation").Inc()
		return nil, ErrSeatNotFound
	}
	if seat.HallID != show.HallID {
		metrics.ReservationAttempts.WithLabelValues("validation").Inc()
		return nil, ErrSeatNotInHall
	}
	if show.Status == "CANCELLED" {
		metrics.ReservationAttempts.WithLabelValues("validation").Inc()
		return nil, ErrShowCancelled
	}
	if !show.StartsAt.After(time.Now().UTC()) {
		metrics.ReservationAttempts.WithLabelValues("validation").Inc()
		return nil, ErrShowStarted
	}

	// Fast fail on a confirmed reservation before paying for a
	// lock store round trip.
	taken, err := co.Reservations.ExistsForSeat(ctx, showInstanceID, seatID)
	if err != nil {
		metrics.ReservationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if taken {
		metrics.ReservationAttempts.WithLabelValues("conflict").Inc()
		return nil, ErrAlreadyReserved
	}

	key := lock.ReservationKey(showInstanceID, seatID)
	holder := strconv.FormatUint(userID, 10)
	ok, err := co.Locks.Acquire(ctx, key, holder, co.TTL)
	if err != nil {
		// Store failure: fail closed, never proceed unlocked.
		metrics.ReservationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok {
		metrics.ReservationAttempts.WithLabelValues("conflict").Inc()
		return nil, ErrAlreadyReserved
	}

	entry := &model.CartEntry{
		UserID:         userID,
		ShowInstanceID: showInstanceID,
		SeatID:         seatID,
		PriceCents:     show.BasePriceCents,
	}
	if err := co.Carts.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateSeat) {
			// A durable row beat us despite the lock (expired TTL
			// or a store failover).  The lock this attempt took is
			// left to age out: deleting it here could free a key
			// the competing writer still relies on.
			metrics.ReservationAttempts.WithLabelValues("conflict").Inc()
			return nil, ErrAlreadyReserved
		}
		// Any other persistence failure: give the lock back so the
		// seat is not dead for a full TTL.  Best effort only.
		if relErr := co.Locks.Release(ctx, []string{key}); relErr != nil {
			log.Printf("booking: lock release after failed persist: %v", relErr)
		}
		metrics.ReservationAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ReservationAttempts.WithLabelValues("success").Inc()
	return entry, nil
}
