package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/amqp"
	"tracker/internal/app"
	"tracker/internal/seed"
	"tracker/internal/services"
	"tracker/internal/sheets"
	"tracker/internal/sheets/memory"
	"tracker/internal/storage"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newApp(t *testing.T, store storage.BlobStore) *app.App {
	t.Helper()
	ds, err := seed.Default(time.UTC)
	require.NoError(t, err)
	a, err := app.New(app.Options{Store: store, Seed: ds, Clock: func() time.Time { return testNow }, Location: time.UTC})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func msg(collection string) *amqp.RecordChangedMessage {
	return amqp.NewRecordChangedMessage(collection, 1, amqp.OpUpdate, testNow)
}

func TestHandleChangeMirrorsCollection(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	cli := newApp(t, store)
	require.NoError(t, cli.Load(ctx))

	wb := memory.New()
	w := NewMirrorWorker(newApp(t, store), wb, nil)

	_, err := cli.Tasks.Create(ctx, services.NewTask{Title: "Write tests"})
	require.NoError(t, err)
	require.NoError(t, w.HandleChange(ctx, msg(services.KeyTasks)))

	tab, ok := wb.Sheet("Tasks")
	require.True(t, ok)
	assert.Len(t, tab.Rows, 6)
	assert.Equal(t, "Write tests", tab.Rows[5][tab.Column("Title")])
}

func TestHandleChangeIgnoresUnknownCollection(t *testing.T) {
	wb := memory.New()
	w := NewMirrorWorker(newApp(t, storage.NewMemoryStore()), wb, nil)

	require.NoError(t, w.HandleChange(context.Background(), msg(services.KeyBudgets)))
	require.NoError(t, w.HandleChange(context.Background(), msg("somethingElse")))
	assert.Zero(t, wb.Writes())
}

type failingSink struct{ err error }

func (f failingSink) WriteTable(context.Context, sheets.Table) error { return f.err }

func TestHandleChangeReturnsWriteErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewMirrorWorker(newApp(t, storage.NewMemoryStore()), failingSink{boom}, nil)

	err := w.HandleChange(context.Background(), msg(services.KeyLinks))
	assert.ErrorIs(t, err, boom)
}

type brokenSource struct{}

func (brokenSource) Table(context.Context, string) (sheets.Table, bool, error) {
	return sheets.Table{}, true, storage.ErrInvalidKey
}

func TestHandleChangeReturnsReloadErrors(t *testing.T) {
	w := NewMirrorWorker(brokenSource{}, memory.New(), nil)
	err := w.HandleChange(context.Background(), msg(services.KeyLinks))
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestSyncAllWritesEveryTab(t *testing.T) {
	wb := memory.New()
	w := NewMirrorWorker(newApp(t, storage.NewMemoryStore()), wb, nil)

	require.NoError(t, w.SyncAll(context.Background()))
	assert.ElementsMatch(t, []string{"Tasks", "Expenses", "TimeEntries", "Links"}, wb.Names())
}

func TestSyncAllJoinsErrors(t *testing.T) {
	boom := errors.New("offline")
	w := NewMirrorWorker(newApp(t, storage.NewMemoryStore()), failingSink{boom}, nil)

	err := w.SyncAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write Tasks tab")
	assert.Contains(t, err.Error(), "write Links tab")
}
