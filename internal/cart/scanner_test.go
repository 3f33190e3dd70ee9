package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomhaus/mailflow/internal/clock"
	"github.com/bloomhaus/mailflow/internal/engine"
	"github.com/bloomhaus/mailflow/internal/logger"
	"github.com/bloomhaus/mailflow/internal/model"
	"github.com/bloomhaus/mailflow/internal/repository"
)

type stubNotifier struct {
	calls []string
	err   error
}

func (n *stubNotifier) ScheduleAbandonedCartStage1(ctx context.Context, customer model.CustomerSnapshot, items []model.CartItem, cartTotal float64) (engine.ScheduleResult, error) {
	n.calls = append(n.calls, customer.Email)
	if n.err != nil {
		return engine.ScheduleResult{}, n.err
	}
	return engine.ScheduleResult{Success: true, TrackingID: "trk-1"}, nil
}

type stubDirectory struct {
	upserts int
	err     error
}

func (d *stubDirectory) Upsert(ctx context.Context, email string, attrs map[string]string, lists []string) error {
	d.upserts++
	return d.err
}

type stubSink struct {
	records int
	err     error
}

func (s *stubSink) Record(ctx context.Context, event string, email string, props map[string]any) error {
	s.records++
	return s.err
}

type scannerFixture struct {
	store    *repository.MemoryCartStore
	notifier *stubNotifier
	dir      *stubDirectory
	sink     *stubSink
	clk      *clock.Fake
	scanner  *Scanner
}

func newScannerFixture(t *testing.T) *scannerFixture {
	t.Helper()
	f := &scannerFixture{
		store:    repository.NewMemoryCartStore(),
		notifier: &stubNotifier{},
		dir:      &stubDirectory{},
		sink:     &stubSink{},
		clk:      clock.NewFake(trackerBase),
	}
	f.scanner = NewScanner(ScannerParams{
		Store:         f.store,
		Notifier:      f.notifier,
		Directory:     f.dir,
		Events:        f.sink,
		IdleThreshold: 30 * time.Minute,
		Interval:      time.Minute,
		Clock:         f.clk,
		Log:           logger.Nop(),
	})
	return f
}

func (f *scannerFixture) putCart(t *testing.T, email string, idleFor time.Duration, notified bool, items []model.CartItem) {
	t.Helper()
	err := f.store.Put(context.Background(), &model.CartEntry{
		Email:     email,
		Items:     items,
		Total:     model.ItemTotal(items),
		UpdatedAt: f.clk.Now().Add(-idleFor),
		Notified:  notified,
	})
	require.NoError(t, err)
}

func TestScanNotifiesIdleCarts(t *testing.T) {
	f := newScannerFixture(t)
	f.putCart(t, "idle@bloomhaus.test", time.Hour, false, testItems())
	f.putCart(t, "fresh@bloomhaus.test", 5*time.Minute, false, testItems())

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{Notified: 1}, sum)
	assert.Equal(t, []string{"idle@bloomhaus.test"}, f.notifier.calls)

	entry, err := f.store.Get(context.Background(), "idle@bloomhaus.test")
	require.NoError(t, err)
	assert.True(t, entry.Notified)

	entry, err = f.store.Get(context.Background(), "fresh@bloomhaus.test")
	require.NoError(t, err)
	assert.False(t, entry.Notified)
}

func TestScanSkipsNotifiedAndEmptyCarts(t *testing.T) {
	f := newScannerFixture(t)
	f.putCart(t, "done@bloomhaus.test", time.Hour, true, testItems())
	f.putCart(t, "empty@bloomhaus.test", time.Hour, false, nil)

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{}, sum)
	assert.Empty(t, f.notifier.calls)
}

func TestScanDirectoryFailureLeavesCartForRetry(t *testing.T) {
	f := newScannerFixture(t)
	f.dir.err = errors.New("crm down")
	f.putCart(t, "idle@bloomhaus.test", time.Hour, false, testItems())

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{}, sum)

	entry, err := f.store.Get(context.Background(), "idle@bloomhaus.test")
	require.NoError(t, err)
	assert.False(t, entry.Notified, "entry must stay un-notified so the next tick retries")
	assert.Zero(t, f.sink.records, "event must not fire when the contact update failed")
}

func TestScanEventFailureLeavesCartForRetry(t *testing.T) {
	f := newScannerFixture(t)
	f.sink.err = errors.New("sink down")
	f.putCart(t, "idle@bloomhaus.test", time.Hour, false, testItems())

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{}, sum)

	entry, err := f.store.Get(context.Background(), "idle@bloomhaus.test")
	require.NoError(t, err)
	assert.False(t, entry.Notified)
}

func TestScanSchedulingFailureStillNotifies(t *testing.T) {
	// Scheduling is best effort; a failure there must not block the contact
	// update or keep the cart in the notify queue forever.
	f := newScannerFixture(t)
	f.notifier.err = errors.New("engine unavailable")
	f.putCart(t, "idle@bloomhaus.test", time.Hour, false, testItems())

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{Notified: 1}, sum)

	entry, err := f.store.Get(context.Background(), "idle@bloomhaus.test")
	require.NoError(t, err)
	assert.True(t, entry.Notified)
}

func TestScanPurgesStaleCarts(t *testing.T) {
	f := newScannerFixture(t)
	f.putCart(t, "stale@bloomhaus.test", 25*time.Hour, true, testItems())
	f.putCart(t, "stale2@bloomhaus.test", 36*time.Hour, false, nil)
	f.putCart(t, "idle@bloomhaus.test", time.Hour, false, testItems())

	sum, err := f.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanSummary{Notified: 1, Purged: 2}, sum)

	_, err = f.store.Get(context.Background(), "stale@bloomhaus.test")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.Get(context.Background(), "stale2@bloomhaus.test")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
