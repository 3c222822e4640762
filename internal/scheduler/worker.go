package scheduler

import (
	"context"
	"fmt"

	"roomshare_backend/internal/metrics"
	"roomshare_backend/internal/querylog"
	"roomshare_backend/internal/suggest"
	"roomshare_backend/platform/apperr"
	"roomshare_backend/platform/config"
	"roomshare_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	suggestSvc  *suggest.Service
	queryRepo   *querylog.Repository
	metricsRepo *metrics.Repository
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, suggestSvc *suggest.Service, queryRepo *querylog.Repository, metricsRepo *metrics.Repository, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		suggestSvc:  suggestSvc,
		queryRepo:   queryRepo,
		metricsRepo: metricsRepo,
		log:         log,
	}

	mux.HandleFunc(TaskCacheWarm, w.handleCacheWarm)
	mux.HandleFunc(TaskMetricsRollup, w.handleMetricsRollup)

	return w, nil
}

// Run blocks processing tasks until the server is shut down.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the asynq server gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleCacheWarm primes the suggestion cache with the most popular
// queries. Warming goes through the normal service path, so each query
// lands in the cache exactly as a user request would.
func (w *Worker) handleCacheWarm(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCacheWarmPayload(task)
	if err != nil {
		return err
	}

	limit := payload.TopQueries
	if limit <= 0 {
		limit = 50
	}

	queries, err := w.queryRepo.TopQueries(ctx, limit)
	if err != nil {
		return err
	}

	warmed := 0
	for _, query := range queries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.suggestSvc.Suggest(ctx, query); err != nil {
			if apperr.Is(err, apperr.KindTooShort) {
				continue
			}
			w.log.Warn("cache warm query failed", "query", query, "error", err.Error())
			continue
		}
		warmed++
	}

	w.log.Info("cache warm complete", "requested", len(queries), "warmed", warmed)
	return nil
}

// handleMetricsRollup aggregates raw web vitals into daily rows.
func (w *Worker) handleMetricsRollup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMetricsRollupPayload(task)
	if err != nil {
		return err
	}

	retention := payload.RetentionDays
	if retention <= 0 {
		retention = 30
	}

	if err := w.metricsRepo.Rollup(ctx, retention); err != nil {
		return err
	}

	w.log.Info("metrics rollup complete", "retention_days", retention)
	return nil
}
