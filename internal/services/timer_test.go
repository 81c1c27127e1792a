package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
	"tracker/internal/storage"
)

// manualTicker delivers ticks only when the test calls tick.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

type tickers struct {
	mu  sync.Mutex
	all []*manualTicker
}

func (ts *tickers) factory(time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	ts.all = append(ts.all, t)
	return t
}

func (ts *tickers) latest() *manualTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.all[len(ts.all)-1]
}

func (ts *tickers) count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.all)
}

func tickN(t *testing.T, s *TimerService, ts *tickers, n int) {
	t.Helper()
	want := s.Elapsed() + int64(n)
	for i := 0; i < n; i++ {
		ts.latest().ch <- time.Now()
	}
	require.Eventually(t, func() bool { return s.Elapsed() == want }, time.Second, time.Millisecond)
}

func newTimer(t *testing.T, d Deps) (*TimerService, *tickers) {
	t.Helper()
	ts := &tickers{}
	s := NewTimerService(d, WithTicker(ts.factory))
	t.Cleanup(s.Close)
	return s, ts
}

func TestTimerSeed(t *testing.T) {
	s, _ := newTimer(t, seededDeps(t, newClock()))
	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Entries(), 2)
	assert.False(t, s.IsRunning())
	assert.Zero(t, s.TotalToday(), "seeded entries started yesterday")
	assert.Equal(t, int64(5400), s.TotalThisWeek())
}

func TestTimerStartTickStop(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	s, ts := newTimer(t, emptyDeps(c))

	entry, err := s.Start(ctx, "Code review", ptr(int64(4)), "PR #12")
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Zero(t, s.Elapsed())
	assert.Nil(t, entry.EndTime)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, entry, active)

	tickN(t, s, ts, 3)
	c.Advance(3 * time.Second)

	done, ok, err := s.Stop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), done.Duration)
	require.NotNil(t, done.EndTime)
	assert.Equal(t, testNow.Add(3*time.Second), *done.EndTime)
	assert.False(t, s.IsRunning())
	assert.Zero(t, s.Elapsed())
	assert.Equal(t, []core.TimeEntry{done}, s.Entries())
	assert.True(t, ts.latest().stopped)
	assert.Equal(t, int64(3), s.TotalToday())
}

func TestTimerStopWhenIdle(t *testing.T) {
	s, _ := newTimer(t, emptyDeps(newClock()))
	_, ok, err := s.Stop(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimerStartWhileActiveStopsPrevious(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	d := emptyDeps(newClock())
	d.Notifier = n
	s, ts := newTimer(t, d)

	first, err := s.Start(ctx, "Design", nil, "")
	require.NoError(t, err)
	tickN(t, s, ts, 2)

	second, err := s.Start(ctx, "Build", nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, int64(2), entries[0].Duration)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
	assert.Zero(t, s.Elapsed())
	assert.Equal(t, 2, ts.count())

	assert.Equal(t, []changeMsg{
		{KeyTimeEntries, first.ID, ChangeCreate},
		{KeyTimeEntries, first.ID, ChangeUpdate},
		{KeyTimeEntries, second.ID, ChangeCreate},
	}, n.all())
}

func TestTimerStartRequiresTitle(t *testing.T) {
	s, _ := newTimer(t, emptyDeps(newClock()))
	_, err := s.Start(context.Background(), "  ", nil, "")
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.False(t, s.IsRunning())
}

func TestTimerLoadResumesActiveEntry(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	d := emptyDeps(c)
	first, _ := newTimer(t, d)
	started, err := first.Start(ctx, "Long task", nil, "")
	require.NoError(t, err)
	first.Close()

	c.Advance(90*time.Second + 700*time.Millisecond)
	second, ts := newTimer(t, d)
	require.NoError(t, second.Load(ctx))

	assert.True(t, second.IsRunning())
	assert.Equal(t, int64(90), second.Elapsed())
	assert.Equal(t, 1, ts.count(), "ticking restarts on load")
	tickN(t, second, ts, 1)

	c.Advance(time.Second)
	done, ok, err := second.Stop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, started.ID, done.ID)
	assert.Equal(t, int64(91), done.Duration)

	// The next entry never reuses the active entry's id.
	next, err := second.Start(ctx, "After restart", nil, "")
	require.NoError(t, err)
	assert.Greater(t, next.ID, started.ID)
}

func TestTimerRejectsStaleActiveSlot(t *testing.T) {
	ctx := context.Background()
	d := emptyDeps(newClock())
	store := d.Store.(*storage.MemoryStore)
	require.NoError(t, store.Set(ctx, KeyTimeEntries, []byte(`[{"id":7,"taskTitle":"done","startTime":"2025-03-12T09:00:00Z","duration":60,"createdAt":"2025-03-12T09:00:00Z"}]`)))
	require.NoError(t, store.Set(ctx, KeyActiveEntry, []byte(`{"id":7,"taskTitle":"done","startTime":"2025-03-12T09:00:00Z","duration":0,"createdAt":"2025-03-12T09:00:00Z"}`)))

	s, ts := newTimer(t, d)
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.IsRunning())
	assert.Zero(t, ts.count())
	_, err := store.Get(ctx, KeyActiveEntry)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTimerReloadLeavesActiveSlot(t *testing.T) {
	ctx := context.Background()
	d := emptyDeps(newClock())
	store := d.Store.(*storage.MemoryStore)
	entries := []byte(`[{"id":7,"taskTitle":"done","startTime":"2025-03-12T09:00:00Z","duration":60,"createdAt":"2025-03-12T09:00:00Z"}]`)
	slot := []byte(`{"id":7,"taskTitle":"done","startTime":"2025-03-12T09:00:00Z","duration":0,"createdAt":"2025-03-12T09:00:00Z"}`)
	require.NoError(t, store.Set(ctx, KeyTimeEntries, entries))
	require.NoError(t, store.Set(ctx, KeyActiveEntry, slot))

	s, ts := newTimer(t, d)
	require.NoError(t, s.Reload(ctx))
	assert.Len(t, s.Entries(), 1)
	assert.Zero(t, ts.count())

	got, err := store.Get(ctx, KeyActiveEntry)
	require.NoError(t, err)
	assert.JSONEq(t, string(slot), string(got))
}

func TestTimerStopPersistFailureKeepsActive(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	s, ts := newTimer(t, Deps{Store: store, Clock: c.Now, Location: time.UTC})

	_, err := s.Start(ctx, "Fragile", nil, "")
	require.NoError(t, err)
	tickN(t, s, ts, 1)

	store.setFail(true)
	_, _, err = s.Stop(ctx)
	require.ErrorIs(t, err, errStoreDown)
	assert.True(t, s.IsRunning())
	assert.Empty(t, s.Entries())
	assert.Equal(t, int64(1), s.Elapsed())

	// Ticking resumed on a fresh ticker.
	tickN(t, s, ts, 1)
	store.setFail(false)
	done, ok, err := s.Stop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), done.Duration)
}

func TestTimerDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTimer(t, seededDeps(t, newClock()))
	require.NoError(t, s.Load(ctx))
	ok, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Entries(), 1)
}

func TestTimerTotals(t *testing.T) {
	ctx := context.Background()
	d := emptyDeps(newClock())
	store := d.Store.(*storage.MemoryStore)
	// Sunday 9th, Saturday 8th, Wednesday 12th.
	require.NoError(t, store.Set(ctx, KeyTimeEntries, []byte(`[
		{"id":1,"taskTitle":"a","startTime":"2025-03-12T08:00:00Z","duration":600,"createdAt":"2025-03-12T08:00:00Z"},
		{"id":2,"taskTitle":"b","startTime":"2025-03-09T00:00:00Z","duration":120,"createdAt":"2025-03-09T00:00:00Z"},
		{"id":3,"taskTitle":"c","startTime":"2025-03-08T23:59:59Z","duration":999,"createdAt":"2025-03-08T23:59:59Z"}
	]`)))
	s, _ := newTimer(t, d)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, int64(600), s.TotalToday())
	assert.Equal(t, int64(720), s.TotalThisWeek())
	assert.Equal(t, "12m 0s", s.FormatDuration(s.TotalThisWeek()))
}

func TestTimerTable(t *testing.T) {
	s, _ := newTimer(t, seededDeps(t, newClock()))
	require.NoError(t, s.Load(context.Background()))
	tbl := s.Table()
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "Review project proposal", "", "2025-03-11 10:00:00", "2025-03-11 11:00:00", "3600", "1h 0m 0s", "Reviewed Q1 proposal"}, tbl.Rows[0])
}
