package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
)

const (
	backoffBase = 100 * time.Millisecond
	jitterMax   = 100 * time.Millisecond
)

// Attempt is the outcome of trying one provider in the chain.
type Attempt struct {
	ProviderID string
	Err        error
}

// ChainError reports that every provider in the chain failed.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d providers failed, last (%s): %v", len(e.Attempts), last.ProviderID, last.Err)
}

// Unwrap exposes the last provider's failure.
func (e *ChainError) Unwrap() error {
	return e.Attempts[len(e.Attempts)-1].Err
}

// Dispatcher tries providers in priority order until one succeeds. Each
// provider is attempted at most once per Send call; retries of the message
// itself happen at the scheduler level, not here.
type Dispatcher struct {
	providers []Provider
	clk       clock.Clock
	log       *logger.Logger
}

// NewDispatcher creates a Dispatcher over the given priority-ordered chain.
func NewDispatcher(providers []Provider, clk clock.Clock, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		providers: providers,
		clk:       clk,
		log:       log.WithComponent("dispatcher"),
	}
}

// Send delivers the payload through the first provider that accepts it,
// sleeping with exponential backoff and jitter between failed providers.
//
// An empty chain is not an error: the payload is dropped and a receipt with
// provider "none" comes back, so a credential-less local run still works.
func (d *Dispatcher) Send(ctx context.Context, payload model.SendPayload) (model.SendReceipt, error) {
	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = uuid.New().String()
	}

	if len(d.providers) == 0 {
		d.log.Warn().
			Str("to", payload.To).
			Str("subject", payload.Subject).
			Msg("no email providers configured, dropping send")
		return model.SendReceipt{ProviderID: "none"}, nil
	}

	var attempts []Attempt
	for i, p := range d.providers {
		messageID, err := p.Send(ctx, payload)
		if err == nil {
			d.log.Info().
				Str("provider", p.ID()).
				Str("message_id", messageID).
				Str("to", payload.To).
				Int("attempt", i+1).
				Msg("email delivered")
			return model.SendReceipt{ProviderID: p.ID(), MessageID: messageID}, nil
		}

		d.log.Warn().
			Err(err).
			Str("provider", p.ID()).
			Str("to", payload.To).
			Msg("provider send failed")
		attempts = append(attempts, Attempt{ProviderID: p.ID(), Err: err})

		if i < len(d.providers)-1 {
			d.clk.Sleep(backoffBase*(1<<i) + rand.N(jitterMax))
		}
	}

	return model.SendReceipt{}, &ChainError{Attempts: attempts}
}
