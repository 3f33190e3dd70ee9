package repository

import (
	"context"
	"sync"
	"time"

	"github.com/bloomhaus/mailflow/internal/model"
)

// MemoryTrackingStore is the default in-process TrackingStore. Records are
// copied on the way in and out so callers never share memory with the store.
type MemoryTrackingStore struct {
	mu      sync.Mutex
	records map[string]*model.TrackingRecord
}

// NewMemoryTrackingStore creates an empty in-memory tracking store.
func NewMemoryTrackingStore() *MemoryTrackingStore {
	return &MemoryTrackingStore{
		records: make(map[string]*model.TrackingRecord),
	}
}

func (s *MemoryTrackingStore) Put(ctx context.Context, rec *model.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryTrackingStore) Get(ctx context.Context, id string) (*model.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryTrackingStore) Update(ctx context.Context, rec *model.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return ErrNotFound
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryTrackingStore) Claim(ctx context.Context, id string, now time.Time) (*model.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Status != model.StatusPending {
		return nil, ErrNotPending
	}
	if rec.ScheduledAt.After(now) {
		return nil, ErrNotDue
	}
	rec.Status = model.StatusProcessing
	rec.UpdatedAt = now
	return rec.Clone(), nil
}

func (s *MemoryTrackingStore) DueIDs(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, rec := range s.records {
		if rec.Status == model.StatusPending && !rec.ScheduledAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryTrackingStore) LastSentAt(ctx context.Context, email string, t model.AutomationType) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *time.Time
	for _, rec := range s.records {
		if rec.CustomerEmail != email || rec.Type != t {
			continue
		}
		if rec.Status != model.StatusSent || rec.SentAt == nil {
			continue
		}
		if last == nil || rec.SentAt.After(*last) {
			sentAt := *rec.SentAt
			last = &sentAt
		}
	}
	return last, nil
}

func (s *MemoryTrackingStore) All(ctx context.Context) ([]*model.TrackingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.TrackingRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *MemoryTrackingStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if rec.Status.Terminal() && rec.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}
