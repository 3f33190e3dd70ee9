package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bloomhaus/mailflow/internal/cart"
	"github.com/bloomhaus/mailflow/internal/config"
	"github.com/bloomhaus/mailflow/internal/database"
	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// Handler holds all HTTP handlers
type Handler struct {
	engine  *engine.Engine
	tracker *cart.Tracker
	store   repository.TrackingStore
	db      *database.Postgres // nil when running on the in-memory store
	rdb     *database.Redis    // nil when running on the in-memory quota
	log     *logger.Logger
	cfg     *config.Config
}

// New creates a new Handler instance
func New(eng *engine.Engine, tracker *cart.Tracker, store repository.TrackingStore, db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config) *Handler {
	return &Handler{
		engine:  eng,
		tracker: tracker,
		store:   store,
		db:      db,
		rdb:     rdb,
		log:     log,
		cfg:     cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
