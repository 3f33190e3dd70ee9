package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/model"
)

// Trigger endpoints. Each one maps a storefront event onto the automations
// it fires. Gate rejections come back as 200s with success=false: the call
// worked, the automation chose not to run.

type signupRequest struct {
	Customer model.CustomerSnapshot `json:"customer"`
}

// CustomerSignup handles POST /api/v1/events/signup
func (h *Handler) CustomerSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Customer.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer with email is required")
		return
	}

	result, err := h.engine.ScheduleWelcome(r.Context(), req.Customer)
	h.writeScheduleResult(w, result, err)
}

type orderPlacedRequest struct {
	Customer   model.CustomerSnapshot `json:"customer"`
	OrderID    string                 `json:"order_id"`
	OrderTotal float64                `json:"order_total"`
}

// orderPlacedResponse reports every automation the order fired.
type orderPlacedResponse struct {
	Confirmation  engine.ScheduleResult `json:"confirmation"`
	CareGuide     engine.ScheduleResult `json:"care_guide"`
	ReviewRequest engine.ScheduleResult `json:"review_request"`
}

// OrderPlaced handles POST /api/v1/events/order-placed. The confirmation is
// immediate and its delivery failure surfaces to the caller; the follow-ups
// are delayed and fail silently into the tracking store.
func (h *Handler) OrderPlaced(w http.ResponseWriter, r *http.Request) {
	var req orderPlacedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Customer.Email == "" || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer with email and order_id are required")
		return
	}
	ctx := r.Context()

	var resp orderPlacedResponse
	var err error
	resp.Confirmation, err = h.engine.ScheduleOrderConfirmation(ctx, req.Customer, req.OrderID, req.OrderTotal)
	if err != nil && errors.Is(err, engine.ErrRetriesExhausted) {
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_failed", err.Error())
		return
	}

	if resp.CareGuide, err = h.engine.ScheduleCareGuide(ctx, req.Customer, req.OrderID); err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_failed", err.Error())
		return
	}
	if resp.ReviewRequest, err = h.engine.ScheduleReviewRequest(ctx, req.Customer, req.OrderID); err != nil {
		writeError(w, http.StatusInternalServerError, "schedule_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CustomerInactive handles POST /api/v1/events/inactive
func (h *Handler) CustomerInactive(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Customer.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer with email is required")
		return
	}

	result, err := h.engine.ScheduleReengagement(r.Context(), req.Customer)
	h.writeScheduleResult(w, result, err)
}

type heartbeatRequest struct {
	Email string           `json:"email"`
	Items []model.CartItem `json:"items"`
	Total *float64         `json:"total,omitempty"`
}

// CartHeartbeat handles POST /api/v1/cart/heartbeat
func (h *Handler) CartHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.tracker.Heartbeat(r.Context(), req.Email, req.Items, req.Total); err != nil {
		writeError(w, http.StatusInternalServerError, "heartbeat_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "tracked"})
}

func (h *Handler) writeScheduleResult(w http.ResponseWriter, result engine.ScheduleResult, err error) {
	switch {
	case err != nil && errors.Is(err, engine.ErrRetriesExhausted):
		writeJSON(w, http.StatusBadGateway, result)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "schedule_failed", err.Error())
	default:
		writeJSON(w, http.StatusOK, result)
	}
}
