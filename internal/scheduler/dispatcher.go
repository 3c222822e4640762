package scheduler

import (
	"context"
	"time"

	"roomshare_backend/platform/logger"
)

// Dispatcher periodically enqueues the recurring maintenance tasks:
// cache warming on the cache-TTL cadence and the metrics rollup daily.
type Dispatcher struct {
	client         *Client
	warmInterval   time.Duration
	rollupInterval time.Duration
	topQueries     int
	log            *logger.Logger
}

// NewDispatcher wires a dispatcher around an existing scheduler client.
func NewDispatcher(client *Client, warmInterval time.Duration, topQueries int, log *logger.Logger) *Dispatcher {
	if warmInterval <= 0 {
		warmInterval = 15 * time.Minute
	}
	return &Dispatcher{
		client:         client,
		warmInterval:   warmInterval,
		rollupInterval: 24 * time.Hour,
		topQueries:     topQueries,
		log:            log,
	}
}

// Run blocks enqueueing tasks until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	warmTicker := time.NewTicker(d.warmInterval)
	defer warmTicker.Stop()
	rollupTicker := time.NewTicker(d.rollupInterval)
	defer rollupTicker.Stop()

	// Warm immediately on startup so a fresh deploy does not begin cold.
	d.enqueueWarm(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-warmTicker.C:
			d.enqueueWarm(ctx)
		case <-rollupTicker.C:
			if err := d.client.EnqueueMetricsRollup(ctx, MetricsRollupPayload{}); err != nil {
				d.log.Warn("failed to enqueue metrics rollup", "error", err.Error())
			}
		}
	}
}

func (d *Dispatcher) enqueueWarm(ctx context.Context) {
	if err := d.client.EnqueueCacheWarm(ctx, CacheWarmPayload{TopQueries: d.topQueries}); err != nil {
		d.log.Warn("failed to enqueue cache warm", "error", err.Error())
	}
}
