package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracker/internal/seed"
	"tracker/internal/storage"
)

// Wednesday 12 March 2025, 10:00 UTC.
var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: testNow} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type changeMsg struct {
	Collection string
	ID         int64
	Op         string
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []changeMsg
	err  error
}

func (n *recordingNotifier) NotifyChange(_ context.Context, collection string, id int64, op string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, changeMsg{collection, id, op})
	return n.err
}

func (n *recordingNotifier) all() []changeMsg {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]changeMsg(nil), n.msgs...)
}

var errStoreDown = errors.New("store down")

type failingStore struct {
	*storage.MemoryStore
	mu   sync.Mutex
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.MemoryStore.Delete(ctx, key)
}

func (s *failingStore) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

func seededDeps(t *testing.T, c *clock) Deps {
	t.Helper()
	ds, err := seed.Default(time.UTC)
	require.NoError(t, err)
	return Deps{
		Store:    storage.NewMemoryStore(),
		Seed:     ds,
		Clock:    c.Now,
		Location: time.UTC,
	}
}

func emptyDeps(c *clock) Deps {
	return Deps{Store: storage.NewMemoryStore(), Clock: c.Now, Location: time.UTC}
}

func ptr[T any](v T) *T { return &v }
