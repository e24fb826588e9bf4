package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spatialops/internal/logging"
	"spatialops/internal/services"
	"spatialops/internal/services/tower"
)

// StatusReader is the slice of the platform client the monitor needs.
type StatusReader interface {
	Status(ctx context.Context, runID string) (tower.Status, error)
	Cancel(ctx context.Context, runID string) error
}

// Await polls the run at a fixed interval until it reaches a terminal state.
// An unresolvable status read terminates the wait immediately with ErrPoll
// rather than retrying indefinitely; masking real failures is worse than a
// spurious abort. Context cancellation triggers a best-effort remote cancel
// before returning Cancelled. There is no deadline beyond the external
// pipeline's own maximum run time.
func Await(ctx context.Context, reader StatusReader, run tower.Run, interval time.Duration, logger *slog.Logger) (tower.Status, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := reader.Status(ctx, run.ID)
		if err != nil || status == tower.StatusUnknown {
			return tower.StatusUnknown, services.Wrap(services.ErrPoll, run.Stage, "await",
				fmt.Sprintf("run %s status unresolvable", run.ID), err)
		}
		if status.Terminal() {
			return status, nil
		}

		logger.Debug("run not terminal yet",
			logging.String(logging.FieldRunID, run.ID),
			logging.String("status", string(status)),
		)

		select {
		case <-ctx.Done():
			cancelCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := reader.Cancel(cancelCtx, run.ID); err != nil {
				logger.Warn("best-effort cancel failed",
					logging.String(logging.FieldRunID, run.ID),
					logging.Error(err),
				)
			}
			cancel()
			return tower.StatusCancelled, services.Wrap(services.ErrStageFailure, run.Stage, "await",
				fmt.Sprintf("run %s cancelled", run.ID), ctx.Err())
		case <-ticker.C:
		}
	}
}
