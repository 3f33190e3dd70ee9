package engine

import (
	"context"
	"time"

	"github.com/bloomhaus/mailflow/internal/model"
)

// withinFrequencyCap reports whether another send of this automation type to
// this customer is allowed. Only records that actually went out count
// against the cap; pending and failed attempts never do.
func (e *Engine) withinFrequencyCap(ctx context.Context, email string, t model.AutomationType, cap time.Duration) (bool, error) {
	if cap == 0 {
		return true, nil
	}
	lastSent, err := e.store.LastSentAt(ctx, email, t)
	if err != nil {
		return false, err
	}
	if lastSent == nil {
		return true, nil
	}
	cutoff := e.clk.Now().Add(-cap)
	return !lastSent.After(cutoff), nil
}
