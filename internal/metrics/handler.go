package metrics

import (
	"context"

	"roomshare_backend/platform/httpkit"
	"roomshare_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Sink abstracts the storage behind the beacon endpoint.
type Sink interface {
	Insert(ctx context.Context, vital WebVital) error
}

// Handler exposes the web-vitals beacon endpoint.
type Handler struct {
	sink Sink
	log  *logger.Logger
}

// NewHandler creates the metrics HTTP handler.
func NewHandler(sink Sink, log *logger.Logger) *Handler {
	return &Handler{sink: sink, log: log}
}

// Report handles POST /api/metrics. The response is always 204: beacons
// are best-effort and a malformed or unstorable metric is dropped, not
// bounced back at the page that reported it.
func (h *Handler) Report(c *gin.Context) {
	var vital WebVital
	if err := c.ShouldBindJSON(&vital); err != nil {
		h.log.MetricDropped("unparsed", err)
		httpkit.NoContent(c)
		return
	}

	if err := h.sink.Insert(c.Request.Context(), vital); err != nil {
		h.log.MetricDropped(vital.Name, err)
	}
	httpkit.NoContent(c)
}
