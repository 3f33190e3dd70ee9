package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bloomhaus/mailflow/internal/model"
)

// Rejection reasons returned in ScheduleResult. These are structured
// outcomes, not errors: a gated schedule call is working as intended.
const (
	ReasonUnknownType     = "unknown_type"
	ReasonDisabled        = "disabled"
	ReasonSegmentMismatch = "segment_mismatch"
	ReasonFrequencyCapped = "frequency_capped"
	ReasonDeliveryFailed  = "delivery_failed"
)

// ScheduleResult is the outcome of a schedule call.
type ScheduleResult struct {
	Success    bool   `json:"success"`
	TrackingID string `json:"tracking_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ScheduleAutomationEmail runs the eligibility gates and, when they pass,
// creates a pending tracking record. Zero-delay automations are processed
// synchronously before returning; delayed ones wait for the sweep.
//
// The returned error is non-nil only for infrastructure failures and for a
// synchronous send that exhausted the provider chain; gate rejections come
// back as an unsuccessful ScheduleResult with a reason.
func (e *Engine) ScheduleAutomationEmail(ctx context.Context, t model.AutomationType, customer model.CustomerSnapshot, event map[string]any, priority string) (ScheduleResult, error) {
	cfg, ok := e.automations[t]
	if !ok {
		return ScheduleResult{Reason: ReasonUnknownType}, nil
	}
	if !cfg.Enabled {
		return ScheduleResult{Reason: ReasonDisabled}, nil
	}
	if !matchesSegment(customer, cfg.Segment) {
		return ScheduleResult{Reason: ReasonSegmentMismatch}, nil
	}

	allowed, err := e.withinFrequencyCap(ctx, customer.Email, t, cfg.FrequencyCap)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("frequency check failed: %w", err)
	}
	if !allowed {
		return ScheduleResult{Reason: ReasonFrequencyCapped}, nil
	}

	now := e.clk.Now()
	rec := &model.TrackingRecord{
		ID:            uuid.New().String(),
		CustomerEmail: customer.Email,
		Type:          t,
		ScheduledAt:   now.Add(cfg.Delay),
		Status:        model.StatusPending,
		Metadata: model.Metadata{
			Customer: customer,
			Event:    event,
			Priority: priority,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Put(ctx, rec); err != nil {
		return ScheduleResult{}, fmt.Errorf("failed to store tracking record: %w", err)
	}

	e.log.WithTracking(rec.ID, string(t)).Info().
		Str("customer", customer.Email).
		Time("scheduled_at", rec.ScheduledAt).
		Msg("automation email scheduled")

	if cfg.Delay == 0 {
		outcome, err := e.ProcessScheduledEmail(ctx, rec.ID)
		if outcome == OutcomeFailed {
			return ScheduleResult{TrackingID: rec.ID, Reason: ReasonDeliveryFailed}, err
		}
	}

	return ScheduleResult{Success: true, TrackingID: rec.ID}, nil
}
