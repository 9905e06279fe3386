// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedEvent is published when an order is successfully paid and
// its seat reservations are written.  It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type OrderConfirmedEvent struct {
	OrderID          uint64   `json:"order_id"`
	UserID           uint64   `json:"user_id"`
	ShowInstanceID   uint64   `json:"show_instance_id"`
	VenueID          uint64   `json:"venue_id"`
	VenueName        string   `json:"venue_name"`
	HallID           uint64   `json:"hall_id"`
	HallName         string   `json:"hall_name"`
	PerformanceTitle string   `json:"performance_title"`
	StartsAt         string   `json:"starts_at"`
	EndsAt           string   `json:"ends_at"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint64   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
