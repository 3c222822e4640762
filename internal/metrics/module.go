package metrics

import (
	apphttp "roomshare_backend/internal/http"
	"roomshare_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the web-vitals beacon route.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule builds the metrics module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, log),
		repo:    repo,
	}
}

// Name implements apphttp.Module.
func (m *Module) Name() string {
	return "metrics"
}

// Repository exposes the metrics repository for the rollup worker.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes implements apphttp.Module. The beacon lives under /api
// (unversioned) because the front end's reporter posts to /api/metrics.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Metrics.POST("/metrics", m.handler.Report)
}

var _ apphttp.Module = (*Module)(nil)
