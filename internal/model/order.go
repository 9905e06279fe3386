package model

import "time"

// Order groups the cart entries a user checks out in a single
// payment.  It tracks the overall status and total amount.
//
// Fields:
//
//	ID               – primary key identifier.
//	UserID           – user who placed the order.
//	Status           – state of the order (PENDING, PAID, CANCELLED).
//	TotalAmountCents – total price in cents for all seats.
//	PaymentRef       – external payment gateway reference, if any.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64    // orders.id
	UserID           uint64    // orders.user_id
	Status           string    // orders.status
	TotalAmountCents uint32    // orders.total_amount_cents
	PaymentRef       *string   // orders.payment_ref (nullable)
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}

// Reservation is a confirmed, post-payment seat assignment tied to
// a completed order.  It is immutable after creation except for
// the Used flag, which flips when the ticket is redeemed at the
// door.  The UNIQUE constraint on (show_instance_id, seat_id)
// mirrors the one on cart_entries.
//
// Fields:
//
//	ID             – primary key identifier.
//	OrderID        – order the reservation belongs to.
//	ShowInstanceID – show instance the seat is reserved for.
//	SeatID         – seat that has been reserved.
//	PriceCents     – price paid for this seat in cents.
//	Used           – whether the ticket has been redeemed.
//	CreatedAt      – creation timestamp.
type Reservation struct {
	ID             uint64    // reservations.id
	OrderID        uint64    // reservations.order_id
	ShowInstanceID uint64    // reservations.show_instance_id
	SeatID         uint64    // reservations.seat_id
	PriceCents     uint32    // reservations.price_cents
	Used           bool      // reservations.used
	CreatedAt      time.Time // reservations.created_at
}
