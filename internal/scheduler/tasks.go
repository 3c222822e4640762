package scheduler

import (
	"encoding/json"

	"roomshare_backend/platform/validator"

	"github.com/hibiken/asynq"
)

const TaskCacheWarm = "suggest.cache_warm"

const TaskMetricsRollup = "metrics.rollup"

// payloadValidator guards task payloads at the queue boundary; a payload
// written by an older or misconfigured client fails here, not mid-handler.
var payloadValidator = validator.New()

type CacheWarmPayload struct {
	TopQueries int `json:"topQueries" validate:"omitempty,min=1,max=500"`
}

type MetricsRollupPayload struct {
	RetentionDays int `json:"retentionDays" validate:"omitempty,min=1,max=365"`
}

func NewCacheWarmTask(payload CacheWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheWarm, data), nil
}

func ParseCacheWarmPayload(task *asynq.Task) (CacheWarmPayload, error) {
	var payload CacheWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, payloadValidator.Struct(payload)
}

func NewMetricsRollupTask(payload MetricsRollupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsRollup, data), nil
}

func ParseMetricsRollupPayload(task *asynq.Task) (MetricsRollupPayload, error) {
	var payload MetricsRollupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, payloadValidator.Struct(payload)
}
