package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// RateGenerator is the slice of the fx service the refresh job needs.
type RateGenerator interface {
	Generate(ctx context.Context, start, end time.Time) (int, error)
}

// NewGenerateRatesHandler returns the handler for TaskTypeGenerateRates. The
// nightly cron leaves the payload dates empty, which fills today's rates; a
// manual enqueue may supply an explicit backfill window.
func NewGenerateRatesHandler(logger *slog.Logger, generator RateGenerator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload GenerateRatesPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}

		today := time.Now().UTC().Truncate(24 * time.Hour)
		start, end := today, today
		if payload.StartDate != "" {
			parsed, err := time.Parse("2006-01-02", payload.StartDate)
			if err != nil {
				return asynq.SkipRetry
			}
			start = parsed
		}
		if payload.EndDate != "" {
			parsed, err := time.Parse("2006-01-02", payload.EndDate)
			if err != nil {
				return asynq.SkipRetry
			}
			end = parsed
		}

		inserted, err := generator.Generate(ctx, start, end)
		if err != nil {
			logger.Error("generate rates job", slog.Any("error", err))
			return err
		}
		logger.Info("generate rates job done",
			slog.String("start", start.Format("2006-01-02")),
			slog.String("end", end.Format("2006-01-02")),
			slog.Int("inserted", inserted))
		return nil
	}
}
