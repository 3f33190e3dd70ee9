package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomhaus/mailflow/internal/model"
)

func pendingRecord(id string, scheduledAt time.Time) *model.TrackingRecord {
	return &model.TrackingRecord{
		ID:            id,
		CustomerEmail: "a@x.com",
		Type:          model.TypeWelcome,
		ScheduledAt:   scheduledAt,
		Status:        model.StatusPending,
		CreatedAt:     scheduledAt.Add(-time.Minute),
		UpdatedAt:     scheduledAt.Add(-time.Minute),
	}
}

func TestClaimTransitionsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()
	require.NoError(t, s.Put(ctx, pendingRecord("r1", now.Add(-time.Minute))))

	rec, err := s.Claim(ctx, "r1", now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, rec.Status)

	// A second claimant loses.
	_, err = s.Claim(ctx, "r1", now)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestClaimRejectsNotDueAndMissing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()
	require.NoError(t, s.Put(ctx, pendingRecord("future", now.Add(time.Hour))))

	_, err := s.Claim(ctx, "future", now)
	assert.ErrorIs(t, err, ErrNotDue)

	_, err = s.Claim(ctx, "missing", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimRejectsTerminalRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()

	rec := pendingRecord("done", now.Add(-time.Hour))
	rec.Status = model.StatusSent
	require.NoError(t, s.Put(ctx, rec))

	_, err := s.Claim(ctx, "done", now)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestDueIDsFiltersByStatusAndTime(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()

	require.NoError(t, s.Put(ctx, pendingRecord("due", now.Add(-time.Minute))))
	require.NoError(t, s.Put(ctx, pendingRecord("later", now.Add(time.Minute))))
	sent := pendingRecord("sent", now.Add(-time.Hour))
	sent.Status = model.StatusSent
	require.NoError(t, s.Put(ctx, sent))

	ids, err := s.DueIDs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, ids)
}

func TestLastSentAtIgnoresNonSentRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()

	older := pendingRecord("s1", now)
	older.Status = model.StatusSent
	olderSent := now.Add(-48 * time.Hour)
	older.SentAt = &olderSent
	require.NoError(t, s.Put(ctx, older))

	newer := pendingRecord("s2", now)
	newer.Status = model.StatusSent
	newerSent := now.Add(-2 * time.Hour)
	newer.SentAt = &newerSent
	require.NoError(t, s.Put(ctx, newer))

	failed := pendingRecord("f1", now)
	failed.Status = model.StatusFailed
	require.NoError(t, s.Put(ctx, failed))

	last, err := s.LastSentAt(ctx, "a@x.com", model.TypeWelcome)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(newerSent))

	none, err := s.LastSentAt(ctx, "b@x.com", model.TypeWelcome)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()
	require.NoError(t, s.Put(ctx, pendingRecord("r1", now)))

	rec, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	rec.Status = model.StatusFailed

	again, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, again.Status, "mutating a returned record must not touch the store")
}

func TestDeleteTerminalBefore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryTrackingStore()

	oldSent := pendingRecord("old-sent", now)
	oldSent.Status = model.StatusSent
	oldSent.CreatedAt = now.Add(-72 * time.Hour)
	require.NoError(t, s.Put(ctx, oldSent))

	oldPending := pendingRecord("old-pending", now)
	oldPending.CreatedAt = now.Add(-72 * time.Hour)
	require.NoError(t, s.Put(ctx, oldPending))

	freshFailed := pendingRecord("fresh-failed", now)
	freshFailed.Status = model.StatusFailed
	freshFailed.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, s.Put(ctx, freshFailed))

	removed, err := s.DeleteTerminalBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get(ctx, "old-sent")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "old-pending")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "fresh-failed")
	assert.NoError(t, err)
}
