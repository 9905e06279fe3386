package model

import "time"

// Venue represents a performance venue operated by an owner
// account.  A venue can contain multiple halls.  This struct
// corresponds to a row in the `venues` table.
//
// Fields:
//
//	ID        – primary key identifier.
//	OwnerID   – user ID of the venue owner.
//	Name      – unique venue name per owner.
//	City      – city the venue is located in.
//	CreatedAt – timestamp when the venue was created.
//	UpdatedAt – timestamp of last update.
type Venue struct {
	ID        uint64    // venues.id
	OwnerID   uint64    // venues.owner_id
	Name      string    // venues.name
	City      string    // venues.city
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}

// Hall represents an individual auditorium within a venue.  Each
// hall has a unique name per venue and defines the seating layout
// that seats are created against.
//
// Fields:
//
//	ID        – primary key identifier.
//	VenueID   – venue the hall belongs to.
//	Name      – unique hall name per venue.
//	SeatRows  – number of seating rows (nil if unspecified).
//	SeatCols  – number of seats per row (nil if unspecified).
//	IsActive  – whether the hall is active.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Hall struct {
	ID        uint64    // halls.id
	VenueID   uint64    // halls.venue_id
	Name      string    // halls.name
	SeatRows  *uint32   // halls.seat_rows (nullable)
	SeatCols  *uint32   // halls.seat_cols (nullable)
	IsActive  bool      // halls.is_active
	CreatedAt time.Time // halls.created_at
	UpdatedAt time.Time // halls.updated_at
}
