// Package metrics exposes Prometheus collectors for the booking
// hot path.  Collectors are registered on the default registry via
// promauto; the /metrics endpoint is wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationAttempts counts calls into the reservation
	// coordinator, labelled by outcome (success, conflict,
	// validation, error).
	ReservationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketing_reservation_attempts_total",
		Help: "Total number of seat reservation attempts by outcome",
	}, []string{"outcome"})

	// LockContention counts acquire calls that found the lock
	// already held.  A high rate here is normal contention, not an
	// error condition.
	LockContention = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_lock_contention_total",
		Help: "Total number of lock acquisitions lost to another holder",
	})

	// LockStoreErrors counts failed round trips to the lock store.
	// These should alert: the coordinator fails closed while the
	// store is down.
	LockStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_lock_store_errors_total",
		Help: "Total number of lock store transport or server errors",
	})

	// SweptCartEntries counts stale cart entries removed by the
	// reconciliation sweeper.
	SweptCartEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_swept_cart_entries_total",
		Help: "Total number of stale cart entries removed by the sweeper",
	})
)
