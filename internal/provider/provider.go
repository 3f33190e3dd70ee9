// Package provider delivers rendered emails through a priority-ordered chain
// of interchangeable transactional-email backends.
package provider

import (
	"context"

	"github.com/bloomhaus/mailflow/internal/model"
)

// Provider is a single transactional-email backend. Implementations are
// interchangeable; the dispatcher fails over between them without changing
// business logic.
type Provider interface {
	// ID returns the stable provider name used in receipts and logs.
	ID() string

	// Send delivers the payload and returns the provider's message id.
	Send(ctx context.Context, payload model.SendPayload) (string, error)
}
