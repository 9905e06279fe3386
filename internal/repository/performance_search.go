package repository

import (
	"context"
	"strings"
)

// ShowSearchQuery defines filters & pagination for searching show instances.
type ShowSearchQuery struct {
	Title      string
	Venue      string
	City       string
	TimeFilter string
	Page       int
	PageSize   int
}

// PublicShowRow is the flattened search result returned to guests.
type PublicShowRow struct {
	ID         uint64  `json:"id"`
	Title      string  `json:"title"`
	HallID     uint64  `json:"hall_id"`
	HallName   string  `json:"hall_name"`
	VenueID    uint64  `json:"venue_id"`
	Venue      string  `json:"venue"`
	City       string  `json:"city"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     string  `json:"ends_at"`
	PriceCents uint64  `json:"price_cents"`
	Price      float64 `json:"price"`
}

// SearchUpcoming performs a relational full-text-ish search over
// show instances using LIKE filters on title, venue and city.  By
// default only instances that have not yet started are returned;
// TimeFilter "active" includes running ones and "any" disables the
// time predicate entirely.
func (r *PerformanceRepo) SearchUpcoming(ctx context.Context, q ShowSearchQuery) ([]PublicShowRow, int64, error) {
	where := []string{"si.status = 'SCHEDULED'"}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "active":
		where = append(where, "si.ends_at >= UTC_TIMESTAMP()")
	default:
		where = append(where, "si.starts_at >= UTC_TIMESTAMP()")
	}

	if q.Title != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Venue != "" {
		where = append(where, "LOWER(v.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Venue)+"%")
	}
	if q.City != "" {
		where = append(where, "LOWER(v.city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.City)+"%")
	}

	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)
        FROM show_instances si
        JOIN performances p ON p.id = si.performance_id
        JOIN halls h  ON h.id = si.hall_id
        JOIN venues v ON v.id = h.venue_id
        WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
            si.id,
            p.title,
            si.hall_id,
            h.name AS hall_name,
            v.id   AS venue_id,
            v.name AS venue_name,
            v.city,
            DATE_FORMAT(si.starts_at, '%Y-%m-%d %T') AS starts_at,
            DATE_FORMAT(si.ends_at,   '%Y-%m-%d %T') AS ends_at,
            COALESCE(si.base_price_cents, 0) AS price_cents
        FROM show_instances si
        JOIN performances p ON p.id = si.performance_id
        JOIN halls h  ON h.id = si.hall_id
        JOIN venues v ON v.id = h.venue_id
        WHERE ` + cond + `
        ORDER BY si.starts_at ASC
        LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicShowRow, 0, limit)
	for rows.Next() {
		var row PublicShowRow
		if err := rows.Scan(&row.ID, &row.Title, &row.HallID, &row.HallName, &row.VenueID, &row.Venue, &row.City, &row.StartsAt, &row.EndsAt, &row.PriceCents); err != nil {
			return nil, 0, err
		}
		row.Price = float64(row.PriceCents) / 100.0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
