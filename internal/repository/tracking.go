// Package repository persists tracking records and open carts. The in-memory
// implementations are the default backend; the Postgres tracking store is a
// drop-in for deployments that need intent to survive restarts.
package repository

import (
	"context"
	"time"

	"github.com/bloomhaus/mailflow/internal/model"
)

// TrackingStore persists automation tracking records.
type TrackingStore interface {
	// Put stores a new record.
	Put(ctx context.Context, rec *model.TrackingRecord) error

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.TrackingRecord, error)

	// Update overwrites an existing record, or returns ErrNotFound.
	Update(ctx context.Context, rec *model.TrackingRecord) error

	// Claim atomically transitions a record from pending to processing,
	// provided it is due at now. Exactly one concurrent caller wins; losers
	// get ErrNotFound, ErrNotPending, or ErrNotDue. The winner must move the
	// record out of processing via Update before dropping it.
	Claim(ctx context.Context, id string, now time.Time) (*model.TrackingRecord, error)

	// DueIDs returns the ids of pending records with ScheduledAt <= now.
	DueIDs(ctx context.Context, now time.Time) ([]string, error)

	// LastSentAt returns the most recent SentAt among sent records for the
	// customer and automation type, or nil if none exist.
	LastSentAt(ctx context.Context, email string, t model.AutomationType) (*time.Time, error)

	// All returns every record, for stats aggregation.
	All(ctx context.Context) ([]*model.TrackingRecord, error)

	// DeleteTerminalBefore removes terminal records created before cutoff
	// and returns how many were removed. Pending and processing records are
	// never touched.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// CartStore persists open-cart entries keyed by customer email.
type CartStore interface {
	Put(ctx context.Context, entry *model.CartEntry) error
	Get(ctx context.Context, email string) (*model.CartEntry, error)
	All(ctx context.Context) ([]*model.CartEntry, error)
	Delete(ctx context.Context, email string) error
}
