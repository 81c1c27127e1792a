package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/sheets"
)

// Ticker is the part of time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ *time.Ticker }

func (t stdTicker) C() <-chan time.Time { return t.Ticker.C }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker { return stdTicker{time.NewTicker(d)} }

type TimerOption func(*TimerService)

// WithTicker replaces the one-second ticker, mostly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) TimerOption {
	return func(s *TimerService) { s.newTicker = newTicker }
}

// TimerService tracks time against tasks. At most one entry is active;
// while it is, a background ticker adds one to the elapsed counter every
// second. Ticks are never persisted, only start and stop are.
type TimerService struct {
	mu      sync.Mutex
	loaded  bool
	entries *records.Collection[core.TimeEntry]
	active  *records.Slot[core.TimeEntry]
	elapsed atomic.Int64

	newTicker func(time.Duration) Ticker
	stopTick  chan struct{}
	tickDone  chan struct{}

	change change
	now    func() time.Time
	loc    *time.Location
	log    *log.Logger
}

func NewTimerService(d Deps, opts ...TimerOption) *TimerService {
	d = d.withDefaults()
	var seedFn func(time.Time) []core.TimeEntry
	if d.Seed != nil {
		seedFn = d.Seed.TimeEntriesAt
	}
	logger := d.Logger.WithComponent(log.ComponentTimer)
	s := &TimerService{
		entries:   records.NewCollection(d.Store, KeyTimeEntries, seedFn, d.recordOptions()),
		active:    records.NewSlot[core.TimeEntry](d.Store, KeyActiveEntry, nil, d.recordOptions()),
		newTicker: NewStdTicker,
		change:    change{notifier: d.Notifier, log: logger},
		now:       d.Clock,
		loc:       d.Location,
		log:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores completed entries and the active entry. A restored active
// entry resumes with elapsed = whole seconds since its start.
func (s *TimerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded(ctx)
}

func (s *TimerService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	if err := s.entries.Load(ctx); err != nil {
		return err
	}
	if err := s.active.Load(ctx); err != nil {
		return err
	}
	if err := s.resumeLocked(ctx); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// Reload re-reads the completed entries for readers such as the mirror.
// It never writes: the active slot and the ticker are left as they are, so
// a stale slot seen mid-stop by another process is not cleared here.
func (s *TimerService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Reload(ctx)
}

func (s *TimerService) resumeLocked(ctx context.Context) error {
	a, ok := s.active.Get()
	if !ok {
		s.stopTicking()
		s.elapsed.Store(0)
		return nil
	}
	if _, done := s.entries.Get(a.ID); done {
		// Stop persisted the entry but failed to clear the slot.
		s.log.WarnContext(ctx, "dropping stale active entry", log.FieldID, a.ID)
		s.stopTicking()
		s.elapsed.Store(0)
		return s.active.Clear(ctx)
	}
	s.entries.Observe(a.ID)
	elapsed := int64(s.now().Sub(a.StartTime) / time.Second)
	s.elapsed.Store(max(elapsed, 0))
	s.startTicking()
	return nil
}

// Start opens a new active entry, stopping the current one first.
func (s *TimerService) Start(ctx context.Context, taskTitle string, taskID *int64, description string) (core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskTitle = strings.TrimSpace(taskTitle)
	if taskTitle == "" {
		return core.TimeEntry{}, fmt.Errorf("start timer: %w", core.ErrEmptyTitle)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return core.TimeEntry{}, err
	}
	if _, _, err := s.stopLocked(ctx); err != nil {
		return core.TimeEntry{}, fmt.Errorf("stop previous entry: %w", err)
	}

	id, err := s.entries.Reserve(ctx)
	if err != nil {
		return core.TimeEntry{}, err
	}
	now := s.now()
	entry := core.TimeEntry{
		ID:          id,
		TaskID:      taskID,
		TaskTitle:   taskTitle,
		StartTime:   now,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}
	if err := s.active.Set(ctx, entry); err != nil {
		return core.TimeEntry{}, fmt.Errorf("start timer: %w", err)
	}
	s.elapsed.Store(0)
	s.startTicking()

	s.log.InfoContext(ctx, "timer started", log.FieldOperation, log.OpStart, log.FieldID, id, "task", taskTitle)
	s.change.publish(ctx, KeyTimeEntries, id, ChangeCreate)
	return entry, nil
}

// Stop closes the active entry with the elapsed time as duration and
// prepends it to the completed entries. It reports false when idle.
func (s *TimerService) Stop(ctx context.Context) (core.TimeEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return core.TimeEntry{}, false, err
	}
	return s.stopLocked(ctx)
}

func (s *TimerService) stopLocked(ctx context.Context) (core.TimeEntry, bool, error) {
	a, ok := s.active.Get()
	if !ok {
		return core.TimeEntry{}, false, nil
	}

	s.stopTicking()
	end := s.now()
	a.EndTime = &end
	a.Duration = s.elapsed.Load()

	if err := s.entries.Add(ctx, records.Head, a); err != nil {
		s.startTicking()
		return core.TimeEntry{}, false, fmt.Errorf("stop timer: %w", err)
	}
	if err := s.active.Clear(ctx); err != nil {
		if _, rmErr := s.entries.Remove(ctx, a.ID); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		s.startTicking()
		return core.TimeEntry{}, false, fmt.Errorf("stop timer: %w", err)
	}
	s.elapsed.Store(0)

	s.log.InfoContext(ctx, "timer stopped", log.FieldOperation, log.OpStop, log.FieldID, a.ID, "duration_s", a.Duration)
	s.change.publish(ctx, KeyTimeEntries, a.ID, ChangeUpdate)
	return a, true, nil
}

// Delete removes a completed entry.
func (s *TimerService) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.entries.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete time entry %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "time entry deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
		s.change.publish(ctx, KeyTimeEntries, id, ChangeDelete)
	}
	return ok, nil
}

// Entries returns completed entries, most recently stopped first.
func (s *TimerService) Entries() []core.TimeEntry { return s.entries.All() }

func (s *TimerService) Active() (core.TimeEntry, bool) { return s.active.Get() }

// Elapsed returns the seconds counted for the active entry.
func (s *TimerService) Elapsed() int64 { return s.elapsed.Load() }

func (s *TimerService) IsRunning() bool {
	_, ok := s.active.Get()
	return ok
}

// TotalToday sums durations of completed entries started today.
func (s *TimerService) TotalToday() int64 {
	today := core.Today(s.now(), s.loc)
	var total int64
	for _, e := range s.entries.All() {
		if core.DateOf(e.StartTime.In(s.loc)).Equal(today) {
			total += e.Duration
		}
	}
	return total
}

// TotalThisWeek sums durations of completed entries started since Sunday.
func (s *TimerService) TotalThisWeek() int64 {
	start, _ := core.PeriodStart(core.PeriodWeek, core.Today(s.now(), s.loc))
	var total int64
	for _, e := range s.entries.All() {
		if !core.DateOf(e.StartTime.In(s.loc)).Before(start.Time) {
			total += e.Duration
		}
	}
	return total
}

// FormatDuration renders seconds as "1h 2m 3s", "2m 3s" or "3s".
func (s *TimerService) FormatDuration(seconds int64) string {
	return core.FormatDuration(seconds)
}

// Close stops the ticker goroutine. The active entry stays persisted.
func (s *TimerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTicking()
}

// Table renders completed entries for spreadsheet export.
func (s *TimerService) Table() sheets.Table {
	t := sheets.Table{
		Name:   "TimeEntries",
		Header: []string{"ID", "Task", "Task ID", "Start", "End", "Duration (s)", "Duration", "Description"},
		Widths: []float64{8, 30, 10, 20, 20, 12, 12, 40},
	}
	for _, e := range s.entries.All() {
		taskID, end := "", ""
		if e.TaskID != nil {
			taskID = strconv.FormatInt(*e.TaskID, 10)
		}
		if e.EndTime != nil {
			end = e.EndTime.In(s.loc).Format(time.DateTime)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.TaskTitle,
			taskID,
			e.StartTime.In(s.loc).Format(time.DateTime),
			end,
			strconv.FormatInt(e.Duration, 10),
			core.FormatDuration(e.Duration),
			e.Description,
		})
	}
	return t
}

// startTicking must be called with mu held.
func (s *TimerService) startTicking() {
	if s.stopTick != nil {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stopTick, s.tickDone = stop, done
	ticker := s.newTicker(time.Second)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				s.elapsed.Add(1)
			}
		}
	}()
}

// stopTicking must be called with mu held. It waits for the goroutine to exit.
func (s *TimerService) stopTicking() {
	if s.stopTick == nil {
		return
	}
	close(s.stopTick)
	<-s.tickDone
	s.stopTick, s.tickDone = nil, nil
}
