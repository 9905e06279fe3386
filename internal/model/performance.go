package model

import "time"

// Performance is a catalog entry for a staged production (play,
// concert, musical).  It carries descriptive information only;
// scheduling lives on ShowInstance.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – performance title.
//	Description – free-form description shown in the catalog.
//	RuntimeMin  – running time in minutes.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Performance struct {
	ID          uint64    // performances.id
	Title       string    // performances.title
	Description *string   // performances.description (nullable)
	RuntimeMin  uint32    // performances.runtime_min
	CreatedAt   time.Time // performances.created_at
	UpdatedAt   time.Time // performances.updated_at
}

// ShowInstance is a specific date/time occurrence of a performance
// in a particular hall.  Instances are immutable once created;
// cancellation is expressed through the status column rather than
// deletion so that existing reservations keep a valid reference.
//
// Fields:
//
//	ID             – primary key identifier.
//	PerformanceID  – performance being staged.
//	HallID         – hall where the instance takes place.
//	StartsAt       – when the instance begins.
//	EndsAt         – when the instance ends (must be after StartsAt).
//	BasePriceCents – default seat price in cents.
//	Status         – current state (SCHEDULED, CANCELLED, FINISHED).
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type ShowInstance struct {
	ID             uint64    // show_instances.id
	PerformanceID  uint64    // show_instances.performance_id
	HallID         uint64    // show_instances.hall_id
	StartsAt       time.Time // show_instances.starts_at
	EndsAt         time.Time // show_instances.ends_at
	BasePriceCents uint32    // show_instances.base_price_cents
	Status         string    // show_instances.status
	CreatedAt      time.Time // show_instances.created_at
	UpdatedAt      time.Time // show_instances.updated_at
}
