package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bloomhaus/mailflow/internal/model"
)

// ErrNotCancellable is returned when cancelling a record that is already
// terminal or currently being processed.
var ErrNotCancellable = errors.New("record can no longer be cancelled")

// CleanupOldTrackingRecords removes terminal records older than daysToKeep
// days and returns how many were removed. Pending records are never removed.
func (e *Engine) CleanupOldTrackingRecords(ctx context.Context, daysToKeep int) (int, error) {
	cutoff := e.clk.Now().AddDate(0, 0, -daysToKeep)
	removed, err := e.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention cleanup failed: %w", err)
	}
	if removed > 0 {
		e.log.Info().Int("removed", removed).Int("days_kept", daysToKeep).Msg("old tracking records removed")
	}
	return removed, nil
}

// CancelScheduledEmail transitions a pending record to cancelled. No
// automatic trigger calls this; it exists for operator intervention.
func (e *Engine) CancelScheduledEmail(ctx context.Context, id string) error {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != model.StatusPending {
		return ErrNotCancellable
	}
	rec.Status = model.StatusCancelled
	rec.UpdatedAt = e.clk.Now()
	if err := e.store.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to cancel record: %w", err)
	}
	e.log.WithTracking(rec.ID, string(rec.Type)).Info().Msg("scheduled email cancelled")
	return nil
}
