// Package records implements write-through record stores.
//
// A Collection keeps an ordered slice of records in memory and rewrites the
// whole slice to its BlobStore key after every mutation. When the write
// fails the in-memory change is discarded, so memory and storage never
// diverge. Ids come from a per-collection sequence that starts above the
// largest id seen at load.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tracker/internal/log"
	"tracker/internal/storage"
)

// Record is anything stored in a Collection.
type Record interface {
	RecordID() int64
}

// Position selects where Insert places a new record.
type Position int

const (
	Tail Position = iota
	Head
)

var (
	ErrIDMismatch  = errors.New("record id changed during build or update")
	ErrDuplicateID = errors.New("record id already present")
)

// Options carries the collaborators shared by collections and slots.
type Options struct {
	Clock  func() time.Time
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.Discard()
	}
	o.Logger = o.Logger.WithComponent(log.ComponentRecords)
	return o
}

type Collection[T Record] struct {
	store storage.BlobStore
	key   string
	seed  func(now time.Time) []T
	now   func() time.Time
	log   *log.Logger

	mu     sync.RWMutex
	items  []T
	loaded bool
	lastID int64
}

// NewCollection builds a collection persisted under key. seed may be nil,
// in which case a missing blob yields an empty collection.
func NewCollection[T Record](store storage.BlobStore, key string, seed func(now time.Time) []T, opts Options) *Collection[T] {
	opts = opts.withDefaults()
	return &Collection[T]{
		store: store,
		key:   key,
		seed:  seed,
		now:   opts.Clock,
		log:   opts.Logger,
	}
}

func (c *Collection[T]) Key() string { return c.key }

// Load reads the blob once per instance. A missing blob is seeded and persisted.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	return c.loadLocked(ctx)
}

// Reload discards memory and re-reads the blob.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Collection[T]) loadLocked(ctx context.Context) error {
	data, err := c.store.Get(ctx, c.key)
	var items []T
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if c.seed != nil {
			items = c.seed(c.now())
			if err := c.persist(ctx, items); err != nil {
				return err
			}
			c.log.InfoContext(ctx, "seeded collection", log.FieldOperation, log.OpSeed, log.FieldCollection, c.key, log.FieldCount, len(items))
		}
	case err != nil:
		return fmt.Errorf("load %s: %w", c.key, err)
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode %s: %w", c.key, err)
		}
	}
	c.items = items
	c.lastID = max(c.lastID, maxID(items))
	c.loaded = true
	c.log.DebugContext(ctx, "collection loaded", log.FieldOperation, log.OpLoad, log.FieldCollection, c.key, log.FieldCount, len(items))
	return nil
}

func (c *Collection[T]) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	return c.loadLocked(ctx)
}

// Reserve hands out the next id without storing anything.
func (c *Collection[T]) Reserve(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	c.lastID++
	return c.lastID, nil
}

// Observe raises the sequence so that id is never handed out again.
func (c *Collection[T]) Observe(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastID = max(c.lastID, id)
}

// Insert allocates an id, lets build construct the record and stores it at pos.
func (c *Collection[T]) Insert(ctx context.Context, pos Position, build func(id int64, now time.Time) (T, error)) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return zero, err
	}

	id := c.lastID + 1
	rec, err := build(id, c.now())
	if err != nil {
		return zero, err
	}
	if rec.RecordID() != id {
		return zero, ErrIDMismatch
	}
	next := insertAt(c.items, rec, pos)
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	c.items = next
	c.lastID = id
	c.log.DebugContext(ctx, "record inserted", log.FieldOperation, log.OpCreate, log.FieldCollection, c.key, log.FieldID, id)
	return rec, nil
}

// Add stores a record that already carries an id (see Reserve).
func (c *Collection[T]) Add(ctx context.Context, pos Position, rec T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	id := rec.RecordID()
	if c.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	next := insertAt(c.items, rec, pos)
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.items = next
	c.lastID = max(c.lastID, id)
	return nil
}

// Update applies mutate to the record with id. It reports false, with no
// error and no change, when the id is unknown.
func (c *Collection[T]) Update(ctx context.Context, id int64, mutate func(rec *T, now time.Time) error) (T, bool, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return zero, false, err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return zero, false, nil
	}

	next := slices.Clone(c.items)
	if err := mutate(&next[idx], c.now()); err != nil {
		return zero, false, err
	}
	if next[idx].RecordID() != id {
		return zero, false, ErrIDMismatch
	}
	if err := c.persist(ctx, next); err != nil {
		return zero, false, err
	}
	c.items = next
	c.log.DebugContext(ctx, "record updated", log.FieldOperation, log.OpUpdate, log.FieldCollection, c.key, log.FieldID, id)
	return next[idx], true, nil
}

// Remove deletes the record with id and reports whether it existed.
func (c *Collection[T]) Remove(ctx context.Context, id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return false, err
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(c.items), idx, idx+1)
	if err := c.persist(ctx, next); err != nil {
		return false, err
	}
	c.items = next
	c.log.DebugContext(ctx, "record removed", log.FieldOperation, log.OpDelete, log.FieldCollection, c.key, log.FieldID, id)
	return true, nil
}

func (c *Collection[T]) Get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := c.indexOf(id); idx >= 0 {
		return c.items[idx], true
	}
	var zero T
	return zero, false
}

// All returns a copy of the records in stored order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Filter returns the records matching keep, in stored order.
func (c *Collection[T]) Filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, rec := range c.items {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) indexOf(id int64) int {
	return slices.IndexFunc(c.items, func(rec T) bool { return rec.RecordID() == id })
}

func (c *Collection[T]) persist(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	return nil
}

func insertAt[T any](items []T, rec T, pos Position) []T {
	next := make([]T, 0, len(items)+1)
	if pos == Head {
		next = append(next, rec)
		return append(next, items...)
	}
	next = append(next, items...)
	return append(next, rec)
}

func maxID[T Record](items []T) int64 {
	var m int64
	for _, rec := range items {
		m = max(m, rec.RecordID())
	}
	return m
}
