package model

import "time"

// CartEntry is a user's provisional, pre-payment claim on a seat
// for a specific show instance.  A Redis lock keyed by the same
// (show_instance, seat) pair is the fast-path guard against two
// users claiming the same seat; the UNIQUE constraint on
// (show_instance_id, seat_id) in the cart_entries table is the
// durable backstop when the lock expires or the lock store fails
// over.  Entries are deleted when the user's cart is converted
// into an order or when the cart is abandoned.
//
// Fields:
//
//	ID             – primary key identifier.
//	UserID         – user who placed the entry.
//	ShowInstanceID – show instance the seat is claimed for.
//	SeatID         – seat being claimed.
//	PriceCents     – price for this seat in cents.
//	CreatedAt      – when the entry was created.
type CartEntry struct {
	ID             uint64    // cart_entries.id
	UserID         uint64    // cart_entries.user_id
	ShowInstanceID uint64    // cart_entries.show_instance_id
	SeatID         uint64    // cart_entries.seat_id
	PriceCents     uint32    // cart_entries.price_cents
	CreatedAt      time.Time // cart_entries.created_at
}
