package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeGenerateRates is the task type for the nightly exchange-rate fill.
	TaskTypeGenerateRates = "fx:generate_rates"
	// TaskTypeIdempotencyCleanup prunes aged idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// GenerateRatesPayload bounds the generation window. Empty dates mean "today".
type GenerateRatesPayload struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// NewGenerateRatesTask constructs the rate-generation task.
func NewGenerateRatesTask(payload GenerateRatesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGenerateRates, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}
