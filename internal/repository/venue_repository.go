package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stagegate/ticketing/internal/model"
)

// ErrVenueNotFound indicates that a venue was not located in the DB.
var ErrVenueNotFound = errors.New("venue not found")

// ErrHallNotFound indicates that a hall was not located in the DB.
var ErrHallNotFound = errors.New("hall not found")

// VenueRepo manages persistence for venues and their halls.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// CreateVenue inserts a venue owned by ownerID and populates the
// generated ID and timestamps on the given model.
func (r *VenueRepo) CreateVenue(ctx context.Context, v *model.Venue) error {
	const q = `INSERT INTO venues (owner_id, name, city) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.OwnerID, v.Name, v.City)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT id, owner_id, name, city, created_at, updated_at FROM venues WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, v.ID).Scan(&v.ID, &v.OwnerID, &v.Name, &v.City, &v.CreatedAt, &v.UpdatedAt)
}

// GetVenue retrieves a venue by ID.  It returns ErrVenueNotFound
// when no matching row exists.
func (r *VenueRepo) GetVenue(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT id, owner_id, name, city, created_at, updated_at FROM venues WHERE id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.OwnerID, &v.Name, &v.City, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListVenues returns all venues ordered by name.  Used by the
// public browse endpoints.
func (r *VenueRepo) ListVenues(ctx context.Context) ([]model.Venue, error) {
	const q = `SELECT id, owner_id, name, city, created_at, updated_at FROM venues ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Venue, 0)
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.City, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateHall inserts a hall into the given venue after verifying
// that the venue belongs to ownerID.  Returns ErrVenueNotFound
// when the venue does not exist and ErrForbidden when it belongs
// to someone else.
func (r *VenueRepo) CreateHall(ctx context.Context, ownerID uint64, h *model.Hall) error {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM venues WHERE id = ?`, h.VenueID).Scan(&actualOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVenueNotFound
		}
		return err
	}
	if actualOwner != ownerID {
		return ErrForbidden
	}
	const q = `INSERT INTO halls (venue_id, name, seat_rows, seat_cols) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.VenueID, h.Name, h.SeatRows, h.SeatCols)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	const sel = `SELECT id, venue_id, name, seat_rows, seat_cols, is_active, created_at, updated_at FROM halls WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, h.ID).Scan(&h.ID, &h.VenueID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
}

// GetHall retrieves a hall by ID.  It returns ErrHallNotFound when
// no matching row exists.
func (r *VenueRepo) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT id, venue_id, name, seat_rows, seat_cols, is_active, created_at, updated_at FROM halls WHERE id = ?`
	var h model.Hall
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.VenueID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListHallsByVenue returns all active halls of a venue ordered by name.
func (r *VenueRepo) ListHallsByVenue(ctx context.Context, venueID uint64) ([]model.Hall, error) {
	const q = `SELECT id, venue_id, name, seat_rows, seat_cols, is_active, created_at, updated_at
               FROM halls WHERE venue_id = ? AND is_active = 1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hall, 0)
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.VenueID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HallOwner returns the owner of the venue containing the hall.
// Used by owner endpoints to enforce ownership before mutating
// shows or seats in a hall.
func (r *VenueRepo) HallOwner(ctx context.Context, hallID uint64) (uint64, error) {
	const q = `SELECT v.owner_id FROM halls h JOIN venues v ON v.id = h.venue_id WHERE h.id = ?`
	var owner uint64
	err := r.db.QueryRowContext(ctx, q, hallID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrHallNotFound
		}
		return 0, err
	}
	return owner, nil
}
