// Package app wires one BlobStore and an optional notifier into every
// feature service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/auth"
	"tracker/internal/log"
	"tracker/internal/seed"
	"tracker/internal/services"
	"tracker/internal/sheets"
	"tracker/internal/storage"
)

type Options struct {
	Store    storage.BlobStore
	Notifier services.Notifier
	Seed     *seed.Dataset
	Clock    func() time.Time
	Location *time.Location
	Logger   *log.Logger

	LoginDelay  time.Duration
	TimerOption []services.TimerOption
	// Cleanup runs last in Close, typically the backend's.
	Cleanup func() error
}

type App struct {
	Tasks    *services.TaskService
	Spending *services.SpendingService
	Timer    *services.TimerService
	Links    *services.LinkService
	Auth     *auth.Service

	log     *log.Logger
	cleanup func() error
}

func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("app needs a store")
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	d := services.Deps{
		Store:    opts.Store,
		Notifier: opts.Notifier,
		Seed:     opts.Seed,
		Clock:    opts.Clock,
		Location: opts.Location,
		Logger:   opts.Logger,
	}
	return &App{
		Tasks:    services.NewTaskService(d),
		Spending: services.NewSpendingService(d),
		Timer:    services.NewTimerService(d, opts.TimerOption...),
		Links:    services.NewLinkService(d),
		Auth:     auth.New(opts.Store, auth.Options{Delay: opts.LoginDelay, Clock: opts.Clock, Logger: opts.Logger}),
		log:      opts.Logger.WithComponent(log.ComponentApp),
		cleanup:  opts.Cleanup,
	}, nil
}

// Load reads every store concurrently and restores the auth session.
func (a *App) Load(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Tasks.Load(gctx) })
	g.Go(func() error { return a.Spending.Load(gctx) })
	g.Go(func() error { return a.Timer.Load(gctx) })
	g.Go(func() error { return a.Links.Load(gctx) })
	g.Go(func() error {
		_, _, err := a.Auth.CheckAuth(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load stores: %w", err)
	}
	a.log.DebugContext(ctx, "stores loaded", log.FieldOperation, log.OpLoad, log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Table reloads the named collection from the store and renders its
// spreadsheet table. ok is false for collections without a table.
func (a *App) Table(ctx context.Context, collection string) (sheets.Table, bool, error) {
	switch collection {
	case services.KeyTasks:
		if err := a.Tasks.Reload(ctx); err != nil {
			return sheets.Table{}, true, err
		}
		return a.Tasks.Table(), true, nil
	case services.KeyExpenses:
		if err := a.Spending.Reload(ctx); err != nil {
			return sheets.Table{}, true, err
		}
		return a.Spending.Table(), true, nil
	case services.KeyTimeEntries, services.KeyActiveEntry:
		if err := a.Timer.Reload(ctx); err != nil {
			return sheets.Table{}, true, err
		}
		return a.Timer.Table(), true, nil
	case services.KeyLinks:
		if err := a.Links.Reload(ctx); err != nil {
			return sheets.Table{}, true, err
		}
		return a.Links.Table(), true, nil
	}
	return sheets.Table{}, false, nil
}

// Close stops the timer ticker and runs the cleanup hook.
func (a *App) Close() error {
	a.Timer.Close()
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
