package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tracker/internal/amqp"
	"tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/sheets"
)

// MirroredCollections are the collections that have a spreadsheet tab.
var MirroredCollections = []string{
	services.KeyTasks,
	services.KeyExpenses,
	services.KeyTimeEntries,
	services.KeyLinks,
}

// TableSource renders the current table of a collection. ok is false when
// the collection has no table.
type TableSource interface {
	Table(ctx context.Context, collection string) (sheets.Table, bool, error)
}

// MirrorWorker rewrites a collection's tab whenever it changes.
type MirrorWorker struct {
	source TableSource
	sink   sheets.TableWriter
	log    *log.Logger

	// one reload-and-write at a time
	mu sync.Mutex
}

func NewMirrorWorker(source TableSource, sink sheets.TableWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{source: source, sink: sink, log: logger.WithComponent(log.ComponentWorker)}
}

// HandleChange mirrors the collection named by msg. Unknown collections
// are acknowledged and ignored; other failures are returned so the
// message is requeued.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	w.log.InfoContext(ctx, "processing change message",
		log.FieldMessageID, msg.MessageID,
		log.FieldCollection, msg.Collection,
		log.FieldID, msg.RecordID,
		log.FieldOperation, msg.Operation)

	mirrored, err := w.mirror(ctx, msg.Collection)
	if err != nil {
		return err
	}
	if !mirrored {
		w.log.DebugContext(ctx, "collection has no tab, ignoring", log.FieldCollection, msg.Collection)
	}
	return nil
}

// SyncAll rewrites every mirrored tab. Used at startup to catch up on
// messages missed while the worker was down.
func (w *MirrorWorker) SyncAll(ctx context.Context) error {
	var errs []error
	synced := 0
	for _, c := range MirroredCollections {
		if _, err := w.mirror(ctx, c); err != nil {
			w.log.ErrorContext(ctx, "startup sync failed", log.FieldCollection, c, log.FieldError, err)
			errs = append(errs, err)
			continue
		}
		synced++
	}
	w.log.InfoContext(ctx, "startup sync completed",
		"total", len(MirroredCollections), "synced", synced, "errors", len(errs))
	return errors.Join(errs...)
}

func (w *MirrorWorker) mirror(ctx context.Context, collection string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok, err := w.source.Table(ctx, collection)
	if err != nil {
		return true, fmt.Errorf("reload %s: %w", collection, err)
	}
	if !ok {
		return false, nil
	}
	if err := w.sink.WriteTable(ctx, t); err != nil {
		return true, fmt.Errorf("write %s tab: %w", t.Name, err)
	}
	w.log.InfoContext(ctx, "tab mirrored",
		log.FieldOperation, log.OpSync,
		log.FieldCollection, collection,
		log.FieldSheet, t.Name,
		log.FieldCount, len(t.Rows))
	return true, nil
}
