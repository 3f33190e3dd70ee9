package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/directory"
	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// maxCartAge is how long an entry may sit idle, notified or not, before the
// cleanup pass removes it to bound memory.
const maxCartAge = 24 * time.Hour

// Notifier schedules the abandoned-cart automation. Satisfied by
// *engine.Engine.
type Notifier interface {
	ScheduleAbandonedCartStage1(ctx context.Context, customer model.CustomerSnapshot, items []model.CartItem, cartTotal float64) (engine.ScheduleResult, error)
}

// Scanner periodically looks for idle, un-notified carts and raises the
// abandonment notification for each.
type Scanner struct {
	store         repository.CartStore
	notifier      Notifier
	directory     directory.ContactDirectory
	events        directory.EventSink
	idleThreshold time.Duration
	interval      time.Duration
	clk           clock.Clock
	log           *logger.Logger
}

// ScannerParams collects the Scanner's dependencies.
type ScannerParams struct {
	Store         repository.CartStore
	Notifier      Notifier
	Directory     directory.ContactDirectory
	Events        directory.EventSink
	IdleThreshold time.Duration
	Interval      time.Duration
	Clock         clock.Clock
	Log           *logger.Logger
}

// NewScanner creates a Scanner.
func NewScanner(p ScannerParams) *Scanner {
	if p.Clock == nil {
		p.Clock = clock.Real{}
	}
	return &Scanner{
		store:         p.Store,
		notifier:      p.Notifier,
		directory:     p.Directory,
		events:        p.Events,
		idleThreshold: p.IdleThreshold,
		interval:      p.Interval,
		clk:           p.Clock,
		log:           p.Log.WithComponent("cart_scanner"),
	}
}

// ScanSummary tallies one scanner pass.
type ScanSummary struct {
	Notified int `json:"notified"`
	Purged   int `json:"purged"`
}

// Scan runs one pass: notify idle carts, then purge anything older than a
// day regardless of notification state.
func (s *Scanner) Scan(ctx context.Context) (ScanSummary, error) {
	now := s.clk.Now()
	entries, err := s.store.All(ctx)
	if err != nil {
		return ScanSummary{}, err
	}

	var sum ScanSummary
	for _, entry := range entries {
		idle := now.Sub(entry.UpdatedAt)

		if idle > maxCartAge {
			if err := s.store.Delete(ctx, entry.Email); err != nil {
				s.log.Warn().Err(err).Str("email", entry.Email).Msg("failed to purge stale cart")
				continue
			}
			sum.Purged++
			continue
		}

		if entry.Notified || len(entry.Items) == 0 || idle < s.idleThreshold {
			continue
		}

		if s.notify(ctx, entry) {
			entry.Notified = true
			if err := s.store.Put(ctx, entry); err != nil {
				s.log.Warn().Err(err).Str("email", entry.Email).Msg("failed to mark cart notified")
				continue
			}
			sum.Notified++
		}
		// On failure the entry is left untouched; the next tick retries.
	}
	return sum, nil
}

// notify raises the abandonment notification for one cart: schedule the
// stage-1 automation and record the event against the contact. Returns true
// only when the contact update and event record both succeed.
func (s *Scanner) notify(ctx context.Context, entry *model.CartEntry) bool {
	log := s.log.With().Str("email", entry.Email).Float64("total", entry.Total).Logger()

	customer := model.CustomerSnapshot{Email: entry.Email}
	if result, err := s.notifier.ScheduleAbandonedCartStage1(ctx, customer, entry.Items, entry.Total); err != nil {
		log.Warn().Err(err).Msg("abandoned cart automation scheduling failed")
	} else if !result.Success {
		log.Debug().Str("reason", result.Reason).Msg("abandoned cart automation not scheduled")
	}

	if err := s.directory.Upsert(ctx, entry.Email, map[string]string{
		"abandoned_cart_total": fmt.Sprintf("%.2f", entry.Total),
	}, []string{"abandoned-carts"}); err != nil {
		log.Warn().Err(err).Msg("contact update failed, will retry next tick")
		return false
	}

	if err := s.events.Record(ctx, "cart_abandoned", entry.Email, map[string]any{
		"cart_total": entry.Total,
		"item_count": len(entry.Items),
	}); err != nil {
		log.Warn().Err(err).Msg("event record failed, will retry next tick")
		return false
	}

	log.Info().Msg("abandoned cart notified")
	return true
}

// Run starts the scan loop. It blocks until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("idle_threshold", s.idleThreshold).
		Msg("cart scanner starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("cart scanner stopping")
			return
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil {
				s.log.Error().Err(err).Msg("cart scan failed")
			}
		}
	}
}
