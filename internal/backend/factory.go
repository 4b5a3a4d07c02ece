package backend

import (
	"context"
	"fmt"

	"budgie/internal/amqp"
	applog "budgie/internal/log"
	"budgie/internal/services"
	"budgie/internal/storage"
	"budgie/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &BackendResult{}
	var err error
	switch config.Type {
	case MemoryBackend:
		result.Store = store.NewMemory()
	case FileBackend:
		result.Store, err = store.NewFile(config.EventFile)
	case SQLiteBackend:
		result.SQL, err = storage.NewSQLiteStore(config.SQLiteDBPath)
		result.Store = result.SQL
	case PostgresBackend:
		result.SQL, err = storage.NewPostgresStore(config.PostgresDSN)
		result.Store = result.SQL
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s event store: %w", config.Type, err)
	}

	// Initialize AMQP client (optional)
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.AMQP = client
			publisher = client
		}
	}

	result.Service = services.NewBudgetService(result.Store, publisher).WithLogger(f.logger)
	result.Cleanup = result.Service.Close

	f.logger.InfoContext(ctx, "Initialized backend",
		applog.FieldBackend, config.Type.String(),
		"amqp_enabled", result.AMQP != nil)

	return result, nil
}
