package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
)

// --- Fake provider ---

type fakeProvider struct {
	id       string
	err      error
	payloads []model.SendPayload
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Send(_ context.Context, payload model.SendPayload) (string, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return "", f.err
	}
	return "msg-" + f.id, nil
}

func payload() model.SendPayload {
	return model.SendPayload{
		To:      "a@x.com",
		Subject: "hello",
		TextBody: "hi",
	}
}

func TestSendFirstProviderWins(t *testing.T) {
	a := &fakeProvider{id: "a"}
	b := &fakeProvider{id: "b"}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher([]Provider{a, b}, clk, logger.Nop())

	receipt, err := d.Send(context.Background(), payload())
	require.NoError(t, err)
	assert.Equal(t, "a", receipt.ProviderID)
	assert.Equal(t, "msg-a", receipt.MessageID)
	assert.Len(t, a.payloads, 1)
	assert.Empty(t, b.payloads, "lower-priority provider must not be touched on success")
	assert.Empty(t, clk.Sleeps(), "no backoff on first-try success")
}

func TestSendFailsOverInPriorityOrder(t *testing.T) {
	a := &fakeProvider{id: "a", err: errors.New("rate limited")}
	b := &fakeProvider{id: "b"}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher([]Provider{a, b}, clk, logger.Nop())

	receipt, err := d.Send(context.Background(), payload())
	require.NoError(t, err)
	assert.Equal(t, "b", receipt.ProviderID)
	assert.Len(t, a.payloads, 1, "each provider is tried at most once per send")
	assert.Len(t, b.payloads, 1)

	sleeps := clk.Sleeps()
	require.Len(t, sleeps, 1)
	assert.GreaterOrEqual(t, sleeps[0], 100*time.Millisecond)
	assert.Less(t, sleeps[0], 200*time.Millisecond)
}

func TestSendAllProvidersFail(t *testing.T) {
	errA := errors.New("rate limited")
	errB := errors.New("connection refused")
	a := &fakeProvider{id: "a", err: errA}
	b := &fakeProvider{id: "b", err: errB}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher([]Provider{a, b}, clk, logger.Nop())

	_, err := d.Send(context.Background(), payload())
	require.Error(t, err)

	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Len(t, chainErr.Attempts, 2)
	assert.ErrorIs(t, err, errB, "the aggregate error carries the last provider's failure")
	assert.Len(t, a.payloads, 1)
	assert.Len(t, b.payloads, 1)
}

func TestSendBackoffGrowsPerProvider(t *testing.T) {
	a := &fakeProvider{id: "a", err: errors.New("down")}
	b := &fakeProvider{id: "b", err: errors.New("down")}
	c := &fakeProvider{id: "c"}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher([]Provider{a, b, c}, clk, logger.Nop())

	_, err := d.Send(context.Background(), payload())
	require.NoError(t, err)

	sleeps := clk.Sleeps()
	require.Len(t, sleeps, 2, "no sleep after the last provider")
	assert.GreaterOrEqual(t, sleeps[0], 100*time.Millisecond)
	assert.Less(t, sleeps[0], 200*time.Millisecond)
	assert.GreaterOrEqual(t, sleeps[1], 200*time.Millisecond)
	assert.Less(t, sleeps[1], 300*time.Millisecond)
}

func TestSendEmptyChainReturnsSentinel(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher(nil, clk, logger.Nop())

	receipt, err := d.Send(context.Background(), payload())
	require.NoError(t, err, "an empty chain is an explicit non-failure")
	assert.Equal(t, "none", receipt.ProviderID)
	assert.Empty(t, receipt.MessageID)
}

func TestSendAttachesIdempotencyKey(t *testing.T) {
	a := &fakeProvider{id: "a"}
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	d := NewDispatcher([]Provider{a}, clk, logger.Nop())

	_, err := d.Send(context.Background(), payload())
	require.NoError(t, err)
	require.Len(t, a.payloads, 1)
	assert.NotEmpty(t, a.payloads[0].IdempotencyKey, "a key is generated when absent")

	p := payload()
	p.IdempotencyKey = "fixed-key"
	_, err = d.Send(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "fixed-key", a.payloads[1].IdempotencyKey, "an existing key is preserved")
}
