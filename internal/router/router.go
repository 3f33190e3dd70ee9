package router

import (
	"net/http"

	"github.com/bloomhaus/mailflow/internal/handler"
	"github.com/bloomhaus/mailflow/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	// Health check (no middleware noise)
	mux.HandleFunc("GET /health", h.Health)

	// Storefront event triggers
	mux.HandleFunc("POST /api/v1/events/signup", h.CustomerSignup)
	mux.HandleFunc("POST /api/v1/events/order-placed", h.OrderPlaced)
	mux.HandleFunc("POST /api/v1/events/inactive", h.CustomerInactive)
	mux.HandleFunc("POST /api/v1/cart/heartbeat", h.CartHeartbeat)

	// Operational surface
	mux.HandleFunc("GET /api/v1/automations/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/automations/sweep", h.Sweep)
	mux.HandleFunc("POST /api/v1/automations/cleanup", h.Cleanup)
	mux.HandleFunc("GET /api/v1/tracking/{id}", h.GetTracking)
	mux.HandleFunc("DELETE /api/v1/tracking/{id}", h.CancelTracking)

	// Middleware chain: recover wraps everything, then request id, then logging
	return mw.Recover(mw.RequestID(mw.Logger(mux)))
}
