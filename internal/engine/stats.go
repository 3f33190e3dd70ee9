package engine

import (
	"context"
	"fmt"

	"github.com/bloomhaus/mailflow/internal/model"
)

// TypeStats breaks down tracking records for one automation type.
type TypeStats struct {
	Scheduled int `json:"scheduled"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

// Stats is the operational snapshot exposed for introspection. Delayed
// automations fail silently from the customer's perspective; this is where
// those failures become visible.
type Stats struct {
	DailyUsage     int                               `json:"daily_usage"`
	PendingCount   int                               `json:"pending_count"`
	TotalScheduled int                               `json:"total_scheduled"`
	SuccessRate    float64                           `json:"success_rate"`
	PerType        map[model.AutomationType]TypeStats `json:"per_type"`
}

// GetAutomationStats aggregates the tracking store and the quota counter.
func (e *Engine) GetAutomationStats(ctx context.Context) (Stats, error) {
	usage, err := e.quota.Usage(ctx, e.clk.Now())
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read quota usage: %w", err)
	}

	records, err := e.store.All(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read tracking records: %w", err)
	}

	stats := Stats{
		DailyUsage: usage,
		PerType:    make(map[model.AutomationType]TypeStats),
	}

	var sent, failed int
	for _, rec := range records {
		ts := stats.PerType[rec.Type]
		ts.Scheduled++
		switch rec.Status {
		case model.StatusSent:
			ts.Sent++
			sent++
		case model.StatusFailed:
			ts.Failed++
			failed++
		case model.StatusPending, model.StatusProcessing:
			ts.Pending++
			stats.PendingCount++
		}
		stats.PerType[rec.Type] = ts
		stats.TotalScheduled++
	}

	if sent+failed > 0 {
		stats.SuccessRate = float64(sent) / float64(sent+failed)
	}
	return stats, nil
}
