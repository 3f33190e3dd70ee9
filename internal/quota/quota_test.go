package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterEnforcesDailyLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	c := NewCounter(2)

	for i := 0; i < 2; i++ {
		ok, err := c.TryConsume(ctx, now)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := c.TryConsume(ctx, now)
	require.NoError(t, err)
	assert.False(t, ok, "third consume exceeds the cap")

	usage, err := c.Usage(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, usage, "a rejected consume must not mutate the counter")
}

func TestCounterResetsOnDayBoundary(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	c := NewCounter(1)

	ok, err := c.TryConsume(ctx, day1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = c.TryConsume(ctx, day1)
	require.NoError(t, err)
	require.False(t, ok)

	// Two minutes later it is a new calendar day and the cap is fresh.
	ok, err = c.TryConsume(ctx, day2)
	require.NoError(t, err)
	assert.True(t, ok)

	usage, err := c.Usage(ctx, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, usage)
}
