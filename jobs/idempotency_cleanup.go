package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// idempotencyRetention is how long processed request keys are kept; retries
// older than this are treated as new requests.
const idempotencyRetention = 48 * time.Hour

// KeyCleaner prunes aged idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupHandler returns the handler for TaskTypeIdempotencyCleanup.
func NewIdempotencyCleanupHandler(logger *slog.Logger, cleaner KeyCleaner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := cleaner.Cleanup(ctx, idempotencyRetention); err != nil {
			logger.Error("idempotency cleanup job", slog.Any("error", err))
			return err
		}
		logger.Info("idempotency cleanup job done")
		return nil
	}
}
