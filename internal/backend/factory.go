package backend

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/amqp"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
	// dialNotifier is swapped in tests.
	dialNotifier func(url, exchange, queue string, logger *log.Logger) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:       logger.WithComponent(log.ComponentBackend),
		dialNotifier: amqp.NewClient,
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   storage.BlobStore
		closers []func() error
	)
	switch config.Type {
	case MemoryBackend:
		store = storage.NewMemoryStore()
	case FileBackend:
		fs, err := storage.NewFileStore(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		store = fs
	case SQLiteBackend:
		ss, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store, closers = ss, append(closers, ss.Close)
	case MySQLBackend:
		ms, err := storage.NewMySQLStore(ctx, config.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL store: %w", err)
		}
		store, closers = ms, append(closers, ms.Close)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	res := &BackendResult{Store: store}
	if config.AMQPURL != "" {
		client, err := f.dialNotifier(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "failed to initialize AMQP client, continuing without change messages", log.FieldError, err)
		} else {
			res.Notifier = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}
	if len(closers) > 0 {
		res.Cleanup = func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		}
	}

	f.logger.InfoContext(ctx, "initialized backend", log.FieldBackend, config.Type.String(), "amqp_enabled", res.Notifier != nil)
	return res, nil
}
