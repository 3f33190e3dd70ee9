package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomhaus/mailflow/internal/logger"
)

// SweepSummary tallies one sweep pass. Skipped covers quota deferrals,
// retry deferrals, and records a concurrent pass claimed first.
type SweepSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ProcessScheduledEmails finds every due pending record and processes each
// sequentially. Delivery failures never propagate from here; they are
// captured in the records and reflected in the summary.
func (e *Engine) ProcessScheduledEmails(ctx context.Context) (SweepSummary, error) {
	now := e.clk.Now()
	ids, err := e.store.DueIDs(ctx, now)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("failed to scan for due records: %w", err)
	}

	var sum SweepSummary
	for _, id := range ids {
		outcome, err := e.ProcessScheduledEmail(ctx, id)
		if err != nil && !errors.Is(err, ErrRetriesExhausted) {
			e.log.Warn().Err(err).Str("tracking_id", id).Msg("sweep processing error")
		}
		sum.Processed++
		switch outcome {
		case OutcomeSent:
			sum.Sent++
		case OutcomeFailed:
			sum.Failed++
		default:
			sum.Skipped++
		}
	}

	if sum.Processed > 0 {
		e.log.Info().
			Int("processed", sum.Processed).
			Int("sent", sum.Sent).
			Int("failed", sum.Failed).
			Int("skipped", sum.Skipped).
			Msg("sweep pass complete")
	}
	return sum, nil
}

// Sweeper drives the sweep on a fixed interval. The loop owns only timer
// mechanics; the scheduling logic lives in ProcessScheduledEmails so tests
// can invoke it directly.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates a Sweeper with the given interval.
func NewSweeper(e *Engine, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		engine:   e,
		interval: interval,
		log:      log.WithComponent("sweeper"),
	}
}

// Run starts the sweep loop. It blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("sweeper starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.engine.ProcessScheduledEmails(ctx); err != nil {
				s.log.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}
