package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/stagegate/ticketing/internal/model"
)

// ErrOrderNotPending is returned when confirming or cancelling an
// order that is not in the PENDING state.
var ErrOrderNotPending = errors.New("order is not pending")

// OrderRepo provides data access for orders and their confirmed
// reservations.  Orders are created from a user's cart inside a
// transaction; reservations are written when the payment gateway
// confirms the order.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying sql.DB for multi-repository transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new PENDING order within the scope of an
// existing transaction and populates the generated ID plus
// DB-default columns on the given model.  The caller must commit
// or roll back.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, status, total_amount_cents) VALUES (?, 'PENDING', ?)`
	res, err := tx.ExecContext(ctx, q, o.UserID, o.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	const sel = `SELECT id, user_id, status, total_amount_cents, payment_ref, created_at, updated_at FROM orders WHERE id = ?`
	var payRef sql.NullString
	if err := tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmountCents, &payRef, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	if payRef.Valid {
		ref := payRef.String
		o.PaymentRef = &ref
	}
	return nil
}

// GetForUser returns an order enforcing ownership.  sql.ErrNoRows
// is returned when the order does not exist and ErrForbidden when
// it belongs to a different user.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID uint64) (*model.Order, error) {
	const q = `SELECT id, user_id, status, total_amount_cents, payment_ref, created_at, updated_at FROM orders WHERE id = ?`
	var o model.Order
	var payRef sql.NullString
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmountCents, &payRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	if payRef.Valid {
		ref := payRef.String
		o.PaymentRef = &ref
	}
	return &o, nil
}

// MarkPaidTx transitions a PENDING order to PAID and records the
// payment reference.  It returns ErrOrderNotPending when the order
// was already confirmed or cancelled, making confirmation
// idempotent-safe at the database level.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID uint64, paymentRef string) error {
	const q = `UPDATE orders SET status='PAID', payment_ref=? WHERE id=? AND status='PENDING'`
	res, err := tx.ExecContext(ctx, q, paymentRef, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotPending
	}
	return nil
}

// CancelTx transitions a PENDING order to CANCELLED.
func (r *OrderRepo) CancelTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
	const q = `UPDATE orders SET status='CANCELLED' WHERE id=? AND status='PENDING'`
	res, err := tx.ExecContext(ctx, q, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotPending
	}
	return nil
}

// CreateReservationsBulkTx inserts confirmed reservation rows for
// an order in a single statement.  A duplicate (show_instance_id,
// seat_id) insert returns ErrDuplicateSeat.  Passing an empty
// slice has no effect and returns nil.
func (r *OrderRepo) CreateReservationsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Reservation) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO reservations (order_id, show_instance_id, seat_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.OrderID, s.ShowInstanceID, s.SeatID, s.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSeat
		}
		return err
	}
	return nil
}

// ExistsForSeat reports whether a confirmed reservation already
// covers the (show instance, seat) pair.  This is the fast-path
// read check the coordinator performs before touching the lock
// store.
func (r *OrderRepo) ExistsForSeat(ctx context.Context, showInstanceID, seatID uint64) (bool, error) {
	const q = `SELECT 1 FROM reservations WHERE show_instance_id = ? AND seat_id = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, showInstanceID, seatID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReservedSeatIDs returns the seat IDs already reserved for a show
// instance.  Used by the public availability endpoint.
func (r *OrderRepo) ReservedSeatIDs(ctx context.Context, showInstanceID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM reservations WHERE show_instance_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderDetail aggregates an order with its reservations for
// display to customers.
type OrderDetail struct {
	ID               uint64  `json:"id"`
	Status           string  `json:"status"`
	TotalAmountCents uint32  `json:"total_amount_cents"`
	PaymentRef       *string `json:"payment_ref,omitempty"`
	CreatedAt        string  `json:"created_at"`
	Seats            []struct {
		ShowInstanceID uint64 `json:"show_instance_id"`
		SeatID         uint64 `json:"seat_id"`
		RowLabel       string `json:"row_label"`
		SeatNumber     uint32 `json:"seat_number"`
		PriceCents     uint32 `json:"price_cents"`
	} `json:"seats"`
}

// ListByUser returns all orders of a user with their reservation
// details, newest first.  When no orders exist an empty slice is
// returned.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	const q = `SELECT id, status, total_amount_cents, payment_ref, created_at
               FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]OrderDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d OrderDetail
		var payRef sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.Status, &d.TotalAmountCents, &payRef, &createdAt); err != nil {
			return nil, err
		}
		if payRef.Valid {
			ref := payRef.String
			d.PaymentRef = &ref
		}
		if createdAt.Valid {
			d.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
		}
		d.Seats = []struct {
			ShowInstanceID uint64 `json:"show_instance_id"`
			SeatID         uint64 `json:"seat_id"`
			RowLabel       string `json:"row_label"`
			SeatNumber     uint32 `json:"seat_number"`
			PriceCents     uint32 `json:"price_cents"`
		}{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate seats for all orders in a single query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT res.order_id, res.show_instance_id, res.seat_id, se.row_label, se.seat_number, res.price_cents
              FROM reservations res
              JOIN seats se ON se.id = res.seat_id
              WHERE res.order_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY res.order_id, se.row_label, se.seat_number`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var oid, showID, sid uint64
		var rowLabel string
		var seatNum uint32
		var price uint32
		if err := srows.Scan(&oid, &showID, &sid, &rowLabel, &seatNum, &price); err != nil {
			return nil, err
		}
		idx, ok := index[oid]
		if !ok {
			continue
		}
		details[idx].Seats = append(details[idx].Seats, struct {
			ShowInstanceID uint64 `json:"show_instance_id"`
			SeatID         uint64 `json:"seat_id"`
			RowLabel       string `json:"row_label"`
			SeatNumber     uint32 `json:"seat_number"`
			PriceCents     uint32 `json:"price_cents"`
		}{ShowInstanceID: showID, SeatID: sid, RowLabel: rowLabel, SeatNumber: seatNum, PriceCents: price})
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
