package suggest

import (
	apphttp "roomshare_backend/internal/http"
)

// Module wires the suggest HTTP routes.
type Module struct {
	svc     *Service
	handler *Handler
}

// NewModule builds the suggest module around an already-constructed
// service (the composition root owns provider and cache selection).
func NewModule(svc *Service) *Module {
	return &Module{
		svc:     svc,
		handler: NewHandler(svc),
	}
}

// Name implements apphttp.Module.
func (m *Module) Name() string {
	return "suggest"
}

// Service exposes the suggest service for other modules and commands.
func (m *Module) Service() *Service {
	return m.svc
}

// RegisterRoutes implements apphttp.Module.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/suggest", m.handler.Suggest)
	ctx.Admin.POST("/suggest/cache/clear", m.handler.ClearCache)
}

var _ apphttp.Module = (*Module)(nil)
