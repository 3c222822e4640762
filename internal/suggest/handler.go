package suggest

import (
	"net/http"

	"roomshare_backend/internal/geocode"
	"roomshare_backend/platform/httpkit"
	"roomshare_backend/platform/sanitize"

	"github.com/gin-gonic/gin"
)

// Handler exposes the suggest endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates the suggest HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SuggestRequest represents the query parameters from the frontend.
type SuggestRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=10"`
}

// SuggestResponse is the payload for a resolved query.
type SuggestResponse struct {
	Query       string               `json:"query"`
	Suggestions []geocode.Suggestion `json:"suggestions"`
}

// Suggest handles GET /api/v1/suggest?q=...
func (h *Handler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required", nil)
		return
	}

	results, err := h.svc.Suggest(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	// The cache is keyed by query alone, so a smaller requested limit
	// trims the shared result set rather than forking a cache entry.
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}

	httpkit.OK(c, SuggestResponse{
		Query:       sanitize.Query(req.Query),
		Suggestions: results,
	})
}

// ClearCache handles POST /api/v1/admin/suggest/cache/clear, the explicit
// process-wide cache reset.
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.svc.ClearCache(c.Request.Context()); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to clear suggestion cache", nil)
		return
	}
	httpkit.OK(c, gin.H{"status": "cleared"})
}
