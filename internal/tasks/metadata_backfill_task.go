package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	backfillTimeout    = 5 * time.Minute
	backfillMaxBatches = 50
)

// newMetadataBackfillTask attaches metadata to stored messages that were
// written without it. Batches are read until none is left, a batch makes no
// progress, or backfillMaxBatches is reached.
func newMetadataBackfillTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "metadata_backfill")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled metadata backfill task...")
		startTime := time.Now()

		timeoutCtx, cancel := context.WithTimeout(ctx, backfillTimeout)
		defer cancel()

		var updated, failed int
		var runErr error
		for batch := 0; batch < backfillMaxBatches; batch++ {
			messages, err := deps.Store.ListUnprocessed(timeoutCtx, deps.BatchSize)
			if err != nil {
				runErr = fmt.Errorf("failed to list unprocessed messages: %w", err)
				break
			}
			if len(messages) == 0 {
				break
			}

			progressed := 0
			for _, msg := range messages {
				if timeoutCtx.Err() != nil {
					runErr = timeoutCtx.Err()
					break
				}

				md, ok := deps.Processor.Process(msg).Metadata()
				if !ok {
					failed++
					continue
				}

				changed, err := deps.Store.UpdateMetadata(timeoutCtx, msg.ID(), md)
				switch {
				case err != nil:
					log.WarnContext(ctx, "Failed to store metadata", "message_id", msg.ID(), "error", err)
					failed++
				case changed:
					updated++
					progressed++
				}
			}

			if runErr != nil || progressed == 0 {
				break
			}
		}

		duration := time.Since(startTime)

		if errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled) {
			log.WarnContext(ctx, "Metadata backfill timed out or was cancelled",
				"updated", updated, "failed", failed, "duration", duration)
			return fmt.Errorf("metadata backfill timed out or was cancelled: %w", runErr)
		}
		if runErr != nil {
			log.ErrorContext(ctx, "Metadata backfill failed", "error", runErr, "duration", duration)
			return fmt.Errorf("metadata backfill failed: %w", runErr)
		}

		log.InfoContext(ctx, "Scheduled metadata backfill task completed",
			"updated", updated, "failed", failed, "duration", duration)
		return nil
	}
}
