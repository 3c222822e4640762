package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists web vitals in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a metrics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one reported vital.
func (r *Repository) Insert(ctx context.Context, vital WebVital) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO web_vitals (id, metric_id, name, value, rating, page, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, uuid.New(), vital.ID, vital.Name, *vital.Value, vital.Rating, vital.Page)
	return err
}

// Rollup aggregates raw vitals into per-day, per-metric rows and prunes
// raw rows older than the retention window.
func (r *Repository) Rollup(ctx context.Context, retentionDays int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO web_vitals_daily (day, name, samples, avg_value, max_value)
		SELECT date_trunc('day', created_at)::date, name, count(*), avg(value), max(value)
		FROM web_vitals
		WHERE created_at < date_trunc('day', now())
		GROUP BY 1, 2
		ON CONFLICT (day, name) DO UPDATE
		SET samples = EXCLUDED.samples,
		    avg_value = EXCLUDED.avg_value,
		    max_value = EXCLUDED.max_value
	`)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		DELETE FROM web_vitals
		WHERE created_at < now() - make_interval(days => $1)
	`, retentionDays)
	return err
}
