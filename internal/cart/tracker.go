// Package cart watches open carts for abandonment. Heartbeats from the
// storefront keep an entry fresh; the scanner notifies once an entry goes
// idle and purges anything older than a day.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// Tracker receives cart heartbeats from the storefront.
type Tracker struct {
	store repository.CartStore
	clk   clock.Clock
	log   *logger.Logger
}

// NewTracker creates a Tracker.
func NewTracker(store repository.CartStore, clk clock.Clock, log *logger.Logger) *Tracker {
	return &Tracker{
		store: store,
		clk:   clk,
		log:   log.WithComponent("cart_tracker"),
	}
}

// Heartbeat upserts the customer's cart entry. The total is computed from
// the items when not supplied. A previously delivered notification stays
// delivered only while the total is unchanged; any change in value re-arms
// the abandonment notification.
func (t *Tracker) Heartbeat(ctx context.Context, email string, items []model.CartItem, total *float64) error {
	cartTotal := model.ItemTotal(items)
	if total != nil {
		cartTotal = *total
	}

	notified := false
	prev, err := t.store.Get(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to read cart entry: %w", err)
	}
	if prev != nil && prev.Notified && prev.Total == cartTotal {
		notified = true
	}

	entry := &model.CartEntry{
		Email:     email,
		Items:     items,
		Total:     cartTotal,
		UpdatedAt: t.clk.Now(),
		Notified:  notified,
	}
	if err := t.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to store cart entry: %w", err)
	}

	t.log.Debug().
		Str("email", email).
		Float64("total", cartTotal).
		Int("items", len(items)).
		Msg("cart heartbeat")
	return nil
}
