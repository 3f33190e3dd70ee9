// Package quota enforces the process-wide daily send ceiling. The check runs
// at send time, not at schedule time, so a blocked record is deferred rather
// than failed.
package quota

import (
	"context"
	"sync"
	"time"
)

// dayLayout formats a calendar-day bucket key.
const dayLayout = "2006-01-02"

// Quota caps total sends per calendar day across all automation types.
type Quota interface {
	// TryConsume reserves one send for the day containing now. It returns
	// false without consuming anything once the daily cap is reached.
	TryConsume(ctx context.Context, now time.Time) (bool, error)

	// Usage returns how many sends have been consumed for the day
	// containing now.
	Usage(ctx context.Context, now time.Time) (int, error)
}

// Counter is the in-memory Quota: a single (day, count) pair that resets
// itself whenever the tracked day differs from now's.
type Counter struct {
	mu    sync.Mutex
	limit int
	day   string
	count int
}

// NewCounter creates a Counter with the given daily limit.
func NewCounter(limit int) *Counter {
	return &Counter{limit: limit}
}

func (c *Counter) TryConsume(ctx context.Context, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll(now)
	if c.count >= c.limit {
		return false, nil
	}
	c.count++
	return true, nil
}

func (c *Counter) Usage(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roll(now)
	return c.count, nil
}

// roll resets the counter on a day boundary. Caller holds the lock.
func (c *Counter) roll(now time.Time) {
	day := now.Format(dayLayout)
	if c.day != day {
		c.day = day
		c.count = 0
	}
}
