// Package services holds the record stores for each feature area
// (tasks, spending, timer, links) and the rules that apply to them.
//
// Every mutation is persisted before it returns. After a successful
// mutation the optional Notifier is told about it; notification failures
// are logged and never undo or fail the mutation.
package services

import (
	"context"
	"time"

	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/seed"
	"tracker/internal/storage"
)

// Blob keys of the persisted collections.
const (
	KeyTasks       = "userTasks"
	KeyExpenses    = "expenses"
	KeyBudgets     = "budgets"
	KeyTimeEntries = "timeEntries"
	KeyActiveEntry = "activeTimeEntry"
	KeyLinks       = "savedLinks"
)

// Change operations reported to the Notifier.
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Notifier is told about every persisted change.
type Notifier interface {
	NotifyChange(ctx context.Context, collection string, id int64, op string) error
}

// Deps are the collaborators shared by all services.
type Deps struct {
	Store    storage.BlobStore
	Notifier Notifier
	// Seed fills empty collections. Nil disables seeding.
	Seed     *seed.Dataset
	Clock    func() time.Time
	Location *time.Location
	Logger   *log.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	return d
}

func (d Deps) recordOptions() records.Options {
	return records.Options{Clock: d.Clock, Logger: d.Logger}
}

// change carries what a service reports after a mutation.
type change struct {
	notifier Notifier
	log      *log.Logger
}

func (c change) publish(ctx context.Context, collection string, id int64, op string) {
	if c.notifier == nil {
		c.log.DebugContext(ctx, "no notifier configured, skipping change message",
			log.FieldCollection, collection, log.FieldID, id, log.FieldOperation, op)
		return
	}
	if err := c.notifier.NotifyChange(ctx, collection, id, op); err != nil {
		// Saved locally already; the mirror catches up on the next change.
		c.log.ErrorContext(ctx, "failed to publish change message",
			log.FieldCollection, collection, log.FieldID, id, log.FieldOperation, op, log.FieldError, err)
	}
}
