// Package engine is the automation scheduler: it owns the tracking-record
// lifecycle, applies the eligibility gates (segment, frequency cap, daily
// quota), and drives delivery through the provider dispatcher with
// exponential-backoff retries.
package engine

import (
	"context"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/directory"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/quota"
	"github.com/bloomhaus/mailflow/internal/render"
	"github.com/bloomhaus/mailflow/internal/repository"
)

// Sender delivers a rendered payload. Satisfied by *provider.Dispatcher.
type Sender interface {
	Send(ctx context.Context, payload model.SendPayload) (model.SendReceipt, error)
}

// Params collects the engine's dependencies.
type Params struct {
	Automations map[model.AutomationType]model.AutomationConfig
	Store       repository.TrackingStore
	Quota       quota.Quota
	Sender      Sender
	Renderer    render.Renderer
	Directory   directory.ContactDirectory
	Events      directory.EventSink
	Clock       clock.Clock
	Log         *logger.Logger
}

// Engine is the central orchestrator. Construct exactly one per process and
// share it; it has no package-level state.
type Engine struct {
	automations map[model.AutomationType]model.AutomationConfig
	store       repository.TrackingStore
	quota       quota.Quota
	sender      Sender
	renderer    render.Renderer
	directory   directory.ContactDirectory
	events      directory.EventSink
	clk         clock.Clock
	log         *logger.Logger
}

// New creates an Engine. The automation catalog defaults to the built-in
// one and the clock to wall time when left nil.
func New(p Params) *Engine {
	if p.Automations == nil {
		p.Automations = model.DefaultAutomations()
	}
	if p.Clock == nil {
		p.Clock = clock.Real{}
	}
	return &Engine{
		automations: p.Automations,
		store:       p.Store,
		quota:       p.Quota,
		sender:      p.Sender,
		renderer:    p.Renderer,
		directory:   p.Directory,
		events:      p.Events,
		clk:         p.Clock,
		log:         p.Log.WithComponent("engine"),
	}
}
