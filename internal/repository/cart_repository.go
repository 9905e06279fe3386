package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stagegate/ticketing/internal/model"
)

// CartRepo provides data access to the cart_entries table.  The
// table carries a UNIQUE constraint on (show_instance_id, seat_id)
// which is the durable duplicate guard behind the distributed
// lock: even if the lock silently expired mid-request, two rows
// for the same seat can never both commit.
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a CartRepo bound to the provided database.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// DB exposes the underlying sql.DB for multi-repository transactions.
func (r *CartRepo) DB() *sql.DB { return r.db }

// Create inserts a cart entry and populates the generated ID and
// creation timestamp.  A duplicate (show_instance_id, seat_id)
// insert returns ErrDuplicateSeat; the booking coordinator maps it
// to its conflict error.
func (r *CartRepo) Create(ctx context.Context, e *model.CartEntry) error {
	const q = `INSERT INTO cart_entries (user_id, show_instance_id, seat_id, price_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.UserID, e.ShowInstanceID, e.SeatID, e.PriceCents)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSeat
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM cart_entries WHERE id = ?`, e.ID).Scan(&e.CreatedAt)
}

// ListByUser returns all cart entries of a user, newest first.
func (r *CartRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CartEntry, error) {
	const q = `SELECT id, user_id, show_instance_id, seat_id, price_cents, created_at
               FROM cart_entries WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCartEntries(rows)
}

// GetForUser returns a single cart entry, enforcing ownership.
// sql.ErrNoRows is returned when the entry does not exist and
// ErrForbidden when it belongs to a different user.
func (r *CartRepo) GetForUser(ctx context.Context, entryID, userID uint64) (*model.CartEntry, error) {
	const q = `SELECT id, user_id, show_instance_id, seat_id, price_cents, created_at FROM cart_entries WHERE id = ?`
	var e model.CartEntry
	err := r.db.QueryRowContext(ctx, q, entryID).Scan(&e.ID, &e.UserID, &e.ShowInstanceID, &e.SeatID, &e.PriceCents, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}
	return &e, nil
}

// Delete removes a single cart entry by ID.
func (r *CartRepo) Delete(ctx context.Context, entryID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_entries WHERE id = ?`, entryID)
	return err
}

// ListByUserTx returns all of a user's cart entries within the
// provided transaction.  Used by order creation, which must read
// and delete the entries atomically with the order insert.
func (r *CartRepo) ListByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.CartEntry, error) {
	const q = `SELECT id, user_id, show_instance_id, seat_id, price_cents, created_at
               FROM cart_entries WHERE user_id = ? ORDER BY created_at ASC`
	rows, err := tx.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCartEntries(rows)
}

// DeleteByUserTx removes all of a user's cart entries within the
// provided transaction.  The caller must commit or roll back.
func (r *CartRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_entries WHERE user_id = ?`, userID)
	return err
}

// HeldSeatIDs returns the seat IDs currently sitting in any user's
// cart for a show instance.  Combined with confirmed reservations
// this yields the public availability view.
func (r *CartRepo) HeldSeatIDs(ctx context.Context, showInstanceID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_id FROM cart_entries WHERE show_instance_id = ?`, showInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes all cart entries created before cutoff
// and returns the deleted rows so the caller can release their
// lock keys.  Used by the reconciliation sweeper.
func (r *CartRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]model.CartEntry, error) {
	const sel = `SELECT id, user_id, show_instance_id, seat_id, price_cents, created_at
                 FROM cart_entries WHERE created_at < ?`
	cut := cutoff.UTC().Format("2006-01-02 15:04:05")
	rows, err := r.db.QueryContext(ctx, sel, cut)
	if err != nil {
		return nil, err
	}
	stale, err := scanCartEntries(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return stale, nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_entries WHERE created_at < ?`, cut); err != nil {
		return nil, err
	}
	return stale, nil
}

func scanCartEntries(rows *sql.Rows) ([]model.CartEntry, error) {
	out := make([]model.CartEntry, 0)
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ShowInstanceID, &e.SeatID, &e.PriceCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
