package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stagegate/ticketing/internal/model"
)

// ErrPerformanceNotFound indicates that a performance was not
// located in the DB.
var ErrPerformanceNotFound = errors.New("performance not found")

// PerformanceRepo manages persistence for performances and their
// show instances.  All timestamp columns are stored in UTC.
type PerformanceRepo struct {
	db *sql.DB
}

// NewPerformanceRepo constructs a PerformanceRepo with the given DB handle.
func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *PerformanceRepo) DB() *sql.DB { return r.db }

// CreatePerformance inserts a catalog entry and populates the
// generated ID and timestamps on the given model.
func (r *PerformanceRepo) CreatePerformance(ctx context.Context, p *model.Performance) error {
	const q = `INSERT INTO performances (title, description, runtime_min) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Title, p.Description, p.RuntimeMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT id, title, description, runtime_min, created_at, updated_at FROM performances WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.ID, &p.Title, &p.Description, &p.RuntimeMin, &p.CreatedAt, &p.UpdatedAt)
}

// GetPerformance retrieves a performance by ID.  It returns
// ErrPerformanceNotFound when no matching row exists.
func (r *PerformanceRepo) GetPerformance(ctx context.Context, id uint64) (*model.Performance, error) {
	const q = `SELECT id, title, description, runtime_min, created_at, updated_at FROM performances WHERE id = ?`
	var p model.Performance
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Title, &p.Description, &p.RuntimeMin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPerformanceNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPerformances returns the full catalog ordered by title.
func (r *PerformanceRepo) ListPerformances(ctx context.Context) ([]model.Performance, error) {
	const q = `SELECT id, title, description, runtime_min, created_at, updated_at FROM performances ORDER BY title ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Performance, 0)
	for rows.Next() {
		var p model.Performance
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.RuntimeMin, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateShowInstance schedules an occurrence of a performance in a
// hall.  Status defaults to SCHEDULED in the DB.  The generated ID
// and default columns are populated on the given model.
func (r *PerformanceRepo) CreateShowInstance(ctx context.Context, s *model.ShowInstance) error {
	const q = `INSERT INTO show_instances (performance_id, hall_id, starts_at, ends_at, base_price_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.PerformanceID, s.HallID,
		s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.EndsAt.UTC().Format("2006-01-02 15:04:05"), s.BasePriceCents)
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
	s.ID = uint64(id)
	const sel = `SELECT id, performance_id, hall_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at
                 FROM show_instances WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.PerformanceID, &s.HallID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// Get retrieves a show instance by ID.  It returns (nil, nil) when
// the instance does not exist, which is the shape the booking
// coordinator's ShowReader interface expects.
func (r *PerformanceRepo) Get(ctx context.Context, id uint64) (*model.ShowInstance, error) {
	const q = `SELECT id, performance_id, hall_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at
               FROM show_instances WHERE id = ?`
	var s model.ShowInstance
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.PerformanceID, &s.HallID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListByHall returns all show instances scheduled in a hall,
// ordered by start time ascending.  Used by public browse.
func (r *PerformanceRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.ShowInstance, error) {
	const q = `SELECT id, performance_id, hall_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at
               FROM show_instances WHERE hall_id = ? ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShowInstance, 0)
	for rows.Next() {
		var s model.ShowInstance
		if err := rows.Scan(&s.ID, &s.PerformanceID, &s.HallID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
