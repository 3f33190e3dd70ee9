package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// Ops endpoints for the automation engine.

// Stats handles GET /api/v1/automations/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetAutomationStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Sweep handles POST /api/v1/automations/sweep, running one sweep pass on
// demand instead of waiting for the timer.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.ProcessScheduledEmails(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Cleanup handles POST /api/v1/automations/cleanup?days=30
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	days := h.cfg.Engine.RetentionDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "days must be a positive integer")
			return
		}
		days = parsed
	}

	removed, err := h.engine.CleanupOldTrackingRecords(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cleanup_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// GetTracking handles GET /api/v1/tracking/{id}
func (h *Handler) GetTracking(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no such tracking record")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CancelTracking handles DELETE /api/v1/tracking/{id}
func (h *Handler) CancelTracking(w http.ResponseWriter, r *http.Request) {
	err := h.engine.CancelScheduledEmail(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such tracking record")
	case errors.Is(err, engine.ErrNotCancellable):
		writeError(w, http.StatusConflict, "not_cancellable", "record is no longer pending")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "cancel_failed", err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	}
}
