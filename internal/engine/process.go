package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// ProcessOutcome says what happened to one due record.
type ProcessOutcome string

const (
	// OutcomeSkipped: the record was missing, terminal, not yet due, or
	// claimed by a concurrent pass. Nothing changed.
	OutcomeSkipped ProcessOutcome = "skipped"
	// OutcomeQuotaDeferred: the daily cap is exhausted; the record was
	// pushed to tomorrow morning without burning an attempt.
	OutcomeQuotaDeferred ProcessOutcome = "quota_deferred"
	// OutcomeSent: delivered; the record is terminal.
	OutcomeSent ProcessOutcome = "sent"
	// OutcomeRetrying: the attempt failed and the record was rescheduled
	// with exponential backoff.
	OutcomeRetrying ProcessOutcome = "retrying"
	// OutcomeFailed: attempts are exhausted; the record is terminal.
	OutcomeFailed ProcessOutcome = "failed"
)

// ErrRetriesExhausted marks a record that burned through its attempt budget.
var ErrRetriesExhausted = errors.New("retries exhausted")

// quotaDeferralHour is the local hour a quota-blocked record is pushed to.
const quotaDeferralHour = 9

// ProcessScheduledEmail attempts delivery for one record. It claims the
// record first, so concurrent sweep passes racing on the same id cannot
// double-send; the losers observe OutcomeSkipped.
func (e *Engine) ProcessScheduledEmail(ctx context.Context, id string) (ProcessOutcome, error) {
	now := e.clk.Now()

	rec, err := e.store.Claim(ctx, id, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrNotPending) ||
			errors.Is(err, repository.ErrNotDue) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("failed to claim record: %w", err)
	}

	log := e.log.WithTracking(rec.ID, string(rec.Type))

	cfg, ok := e.automations[rec.Type]
	if !ok {
		// Catalog changed under a stored record; nothing can send it.
		rec.Status = model.StatusFailed
		rec.LastError = fmt.Sprintf("unknown automation type %q", rec.Type)
		rec.UpdatedAt = now
		if err := e.store.Update(ctx, rec); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeFailed, fmt.Errorf("unknown automation type %q", rec.Type)
	}

	// Quota is checked at send time, not schedule time. A blocked record is
	// deferred, never failed, and the attempt counter is untouched.
	allowed, err := e.quota.TryConsume(ctx, now)
	if err != nil {
		rec.Status = model.StatusPending
		rec.UpdatedAt = now
		if uerr := e.store.Update(ctx, rec); uerr != nil {
			return OutcomeSkipped, uerr
		}
		return OutcomeSkipped, fmt.Errorf("quota check failed: %w", err)
	}
	if !allowed {
		rec.Status = model.StatusPending
		rec.ScheduledAt = nextMorning(now)
		rec.UpdatedAt = now
		if err := e.store.Update(ctx, rec); err != nil {
			return OutcomeQuotaDeferred, err
		}
		log.Info().Time("rescheduled_to", rec.ScheduledAt).Msg("daily quota reached, deferring send")
		return OutcomeQuotaDeferred, nil
	}

	email, err := e.renderer.Render(rec.Type, rec.Metadata)
	if err != nil {
		return e.failAttempt(ctx, rec, cfg, now, fmt.Errorf("render failed: %w", err))
	}

	receipt, err := e.sender.Send(ctx, model.SendPayload{
		To:             rec.CustomerEmail,
		Subject:        email.Subject,
		HTMLBody:       email.HTMLBody,
		TextBody:       email.TextBody,
		IdempotencyKey: rec.ID,
	})
	if err != nil {
		return e.failAttempt(ctx, rec, cfg, now, err)
	}

	sentAt := e.clk.Now()
	rec.Status = model.StatusSent
	rec.SentAt = &sentAt
	rec.Attempts++
	rec.LastError = ""
	rec.UpdatedAt = sentAt
	if err := e.store.Update(ctx, rec); err != nil {
		return OutcomeSent, fmt.Errorf("failed to mark record sent: %w", err)
	}

	log.Info().
		Str("provider", receipt.ProviderID).
		Str("message_id", receipt.MessageID).
		Int("attempts", rec.Attempts).
		Msg("automation email sent")

	e.recordSendSideEffects(ctx, rec, receipt)
	return OutcomeSent, nil
}

// failAttempt applies the retry policy after a failed delivery attempt:
// reschedule with exponential backoff while attempts remain, otherwise mark
// the record terminally failed.
func (e *Engine) failAttempt(ctx context.Context, rec *model.TrackingRecord, cfg model.AutomationConfig, now time.Time, cause error) (ProcessOutcome, error) {
	rec.Attempts++
	rec.LastError = cause.Error()
	rec.UpdatedAt = now

	log := e.log.WithTracking(rec.ID, string(rec.Type))

	if rec.Attempts < cfg.MaxAttempts {
		backoff := time.Duration(1<<(rec.Attempts-1)) * time.Hour
		rec.Status = model.StatusPending
		rec.ScheduledAt = now.Add(backoff)
		if err := e.store.Update(ctx, rec); err != nil {
			return OutcomeRetrying, err
		}
		log.Warn().
			Err(cause).
			Int("attempts", rec.Attempts).
			Dur("backoff", backoff).
			Msg("send attempt failed, will retry")
		return OutcomeRetrying, nil
	}

	rec.Status = model.StatusFailed
	if err := e.store.Update(ctx, rec); err != nil {
		return OutcomeFailed, err
	}
	log.Error().
		Err(cause).
		Int("attempts", rec.Attempts).
		Msg("automation email failed permanently")
	return OutcomeFailed, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, rec.Attempts, cause)
}

// recordSendSideEffects runs the best-effort post-send collaborator calls.
// Their failures are logged and swallowed; the record stays sent.
func (e *Engine) recordSendSideEffects(ctx context.Context, rec *model.TrackingRecord, receipt model.SendReceipt) {
	log := e.log.WithTracking(rec.ID, string(rec.Type))

	attrs := map[string]string{
		"last_automation":    string(rec.Type),
		"last_automation_at": rec.SentAt.Format(time.RFC3339),
	}
	if rec.Metadata.Customer.Name != "" {
		attrs["name"] = rec.Metadata.Customer.Name
	}
	if err := e.directory.Upsert(ctx, rec.CustomerEmail, attrs, nil); err != nil {
		log.Warn().Err(err).Msg("contact directory update failed")
	}

	if err := e.events.Record(ctx, "automation_email_sent", rec.CustomerEmail, map[string]any{
		"automation_type": string(rec.Type),
		"tracking_id":     rec.ID,
		"provider":        receipt.ProviderID,
		"message_id":      receipt.MessageID,
	}); err != nil {
		log.Warn().Err(err).Msg("event sink record failed")
	}
}

// nextMorning returns 09:00 local time on the day after now.
func nextMorning(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, quotaDeferralHour, 0, 0, 0, now.Location())
}
