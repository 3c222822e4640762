// Package querylog tracks which location queries users run and select,
// feeding the popularity table that the cache warmer reads.
package querylog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists per-query counters in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a querylog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordResolved bumps the resolved counter for a normalized query.
func (r *Repository) RecordResolved(ctx context.Context, query string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO popular_queries (query, resolved_count, selected_count, last_seen)
		VALUES ($1, 1, 0, now())
		ON CONFLICT (query) DO UPDATE
		SET resolved_count = popular_queries.resolved_count + 1,
		    last_seen = now()
	`, query)
	return err
}

// RecordSelected bumps the selected counter for a normalized query.
func (r *Repository) RecordSelected(ctx context.Context, query string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO popular_queries (query, resolved_count, selected_count, last_seen)
		VALUES ($1, 0, 1, now())
		ON CONFLICT (query) DO UPDATE
		SET selected_count = popular_queries.selected_count + 1,
		    last_seen = now()
	`, query)
	return err
}

// TopQueries returns the most-selected queries, selection-weighted so
// queries users actually commit to outrank ones they merely typed past.
func (r *Repository) TopQueries(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT query
		FROM popular_queries
		ORDER BY selected_count * 3 + resolved_count DESC, last_seen DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries := make([]string, 0, limit)
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
