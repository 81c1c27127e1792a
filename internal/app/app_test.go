package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/seed"
	"tracker/internal/services"
	"tracker/internal/storage"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newApp(t *testing.T, store storage.BlobStore) *App {
	t.Helper()
	ds, err := seed.Default(time.UTC)
	require.NoError(t, err)
	a, err := New(Options{
		Store:    store,
		Seed:     ds,
		Clock:    func() time.Time { return testNow },
		Location: time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestLoadSeedsEveryStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a := newApp(t, store)
	require.NoError(t, a.Load(ctx))

	assert.Len(t, a.Tasks.List(), 5)
	assert.Len(t, a.Spending.List(), 5)
	assert.Len(t, a.Spending.Budgets(), 3)
	assert.Len(t, a.Links.List(), 3)
	assert.False(t, a.Timer.IsRunning())
	_, ok := a.Auth.Current()
	assert.False(t, ok)

	for _, key := range []string{services.KeyTasks, services.KeyExpenses, services.KeyBudgets, services.KeyTimeEntries, services.KeyLinks} {
		_, err := store.Get(ctx, key)
		assert.NoError(t, err, key)
	}
}

func TestTableReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	writer := newApp(t, store)
	require.NoError(t, writer.Load(ctx))
	reader := newApp(t, store)
	require.NoError(t, reader.Load(ctx))

	_, err := writer.Links.Create(ctx, services.NewLink{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)

	tbl, ok, err := reader.Table(ctx, services.KeyLinks)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Links", tbl.Name)
	assert.Len(t, tbl.Rows, 4)
	assert.Equal(t, "Go", tbl.Rows[0][0])
}

func TestTableDoesNotWriteTheStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	entries := []byte(`[{"id":5,"taskTitle":"Report","startTime":"2025-03-12T09:00:00Z","duration":60,"createdAt":"2025-03-12T09:00:00Z"}]`)
	slot := []byte(`{"id":5,"taskTitle":"Report","startTime":"2025-03-12T09:00:00Z","duration":0,"createdAt":"2025-03-12T09:00:00Z"}`)
	require.NoError(t, store.Set(ctx, services.KeyTimeEntries, entries))
	require.NoError(t, store.Set(ctx, services.KeyActiveEntry, slot))

	a := newApp(t, store)
	tbl, ok, err := a.Table(ctx, services.KeyTimeEntries)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, tbl.Rows, 1)

	assert.ElementsMatch(t, []string{services.KeyTimeEntries, services.KeyActiveEntry}, store.Keys())
	got, err := store.Get(ctx, services.KeyActiveEntry)
	require.NoError(t, err)
	assert.JSONEq(t, string(slot), string(got))
	got, err = store.Get(ctx, services.KeyTimeEntries)
	require.NoError(t, err)
	assert.JSONEq(t, string(entries), string(got))
}

func TestTableCollections(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, storage.NewMemoryStore())
	require.NoError(t, a.Load(ctx))

	for key, name := range map[string]string{
		services.KeyTasks:       "Tasks",
		services.KeyExpenses:    "Expenses",
		services.KeyTimeEntries: "TimeEntries",
		services.KeyActiveEntry: "TimeEntries",
		services.KeyLinks:       "Links",
	} {
		tbl, ok, err := a.Table(ctx, key)
		require.NoError(t, err, key)
		assert.True(t, ok, key)
		assert.Equal(t, name, tbl.Name, key)
	}

	_, ok, err := a.Table(ctx, services.KeyBudgets)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = a.Table(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloseRunsCleanup(t *testing.T) {
	called := false
	a, err := New(Options{Store: storage.NewMemoryStore(), Cleanup: func() error { called = true; return nil }})
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.True(t, called)
}
