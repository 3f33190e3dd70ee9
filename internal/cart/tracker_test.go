package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/repository"
)

var trackerBase = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testItems() []model.CartItem {
	return []model.CartItem{
		{ProductID: "monstera-lg", Name: "Monstera Deliciosa", Price: 45, Quantity: 1},
		{ProductID: "terracotta-6", Name: "Terracotta Pot 6\"", Price: 12.50, Quantity: 2},
	}
}

func TestHeartbeatComputesTotalFromItems(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryCartStore()
	tracker := NewTracker(store, clock.NewFake(trackerBase), logger.Nop())

	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", testItems(), nil))

	entry, err := store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, entry.Total, 0.001)
	assert.True(t, entry.UpdatedAt.Equal(trackerBase))
	assert.False(t, entry.Notified)
}

func TestHeartbeatExplicitTotalWins(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryCartStore()
	tracker := NewTracker(store, clock.NewFake(trackerBase), logger.Nop())

	total := 55.0
	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", testItems(), &total))

	entry, err := store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	assert.InDelta(t, 55.0, entry.Total, 0.001)
}

func TestHeartbeatPreservesNotifiedWhileTotalUnchanged(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryCartStore()
	clk := clock.NewFake(trackerBase)
	tracker := NewTracker(store, clk, logger.Nop())

	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", testItems(), nil))

	// Scanner marks the cart notified out of band.
	entry, err := store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	entry.Notified = true
	require.NoError(t, store.Put(ctx, entry))

	// Same contents again: already-delivered notification must stick.
	clk.Advance(10 * time.Minute)
	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", testItems(), nil))

	entry, err = store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	assert.True(t, entry.Notified)
	assert.True(t, entry.UpdatedAt.Equal(trackerBase.Add(10*time.Minute)))
}

func TestHeartbeatTotalChangeReArmsNotification(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryCartStore()
	tracker := NewTracker(store, clock.NewFake(trackerBase), logger.Nop())

	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", testItems(), nil))

	entry, err := store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	entry.Notified = true
	require.NoError(t, store.Put(ctx, entry))

	// Customer adds an item; the cart is worth notifying about again.
	items := append(testItems(), model.CartItem{ProductID: "mister", Name: "Brass Mister", Price: 18, Quantity: 1})
	require.NoError(t, tracker.Heartbeat(ctx, "fern@bloomhaus.test", items, nil))

	entry, err = store.Get(ctx, "fern@bloomhaus.test")
	require.NoError(t, err)
	assert.False(t, entry.Notified)
	assert.InDelta(t, 88.0, entry.Total, 0.001)
}
