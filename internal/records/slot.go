package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"tracker/internal/log"
	"tracker/internal/storage"
)

// Slot holds at most one value under a key. Clearing the slot deletes the key.
type Slot[T any] struct {
	store storage.BlobStore
	key   string
	seed  func(now time.Time) T
	now   func() time.Time
	log   *log.Logger

	mu      sync.RWMutex
	value   T
	present bool
	loaded  bool
}

// NewSlot builds a slot persisted under key. A non-nil seed fills a missing blob.
func NewSlot[T any](store storage.BlobStore, key string, seed func(now time.Time) T, opts Options) *Slot[T] {
	opts = opts.withDefaults()
	return &Slot[T]{store: store, key: key, seed: seed, now: opts.Clock, log: opts.Logger}
}

func (s *Slot[T]) Key() string { return s.key }

func (s *Slot[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Slot[T]) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Slot[T]) loadLocked(ctx context.Context) error {
	var zero T
	data, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.value, s.present = zero, false
		if s.seed != nil {
			v := s.seed(s.now())
			if err := s.persist(ctx, v); err != nil {
				return err
			}
			s.value, s.present = v, true
			s.log.InfoContext(ctx, "seeded slot", log.FieldOperation, log.OpSeed, log.FieldKey, s.key)
		}
	case err != nil:
		return fmt.Errorf("load %s: %w", s.key, err)
	default:
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode %s: %w", s.key, err)
		}
		s.value, s.present = v, true
	}
	s.loaded = true
	return nil
}

// Get returns the value and whether one is set.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.present
}

// Set persists v and then keeps it in memory.
func (s *Slot[T]) Set(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, v); err != nil {
		return err
	}
	s.value, s.present, s.loaded = v, true, true
	return nil
}

// Clear deletes the key and empties the slot.
func (s *Slot[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear %s: %w", s.key, err)
	}
	var zero T
	s.value, s.present, s.loaded = zero, false, true
	return nil
}

func (s *Slot[T]) persist(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}
