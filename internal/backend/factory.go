package backend

import (
	"context"
	"fmt"

	"carteira/internal/log"
	"carteira/internal/storage/bolt"
	"carteira/internal/storage/jsonfile"
	"carteira/internal/storage/memory"
	"carteira/internal/storage/postgres"
	"carteira/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case JSONBackend:
		store, err := jsonfile.Open(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize json store: %w", err)
		}
		f.logger.Info("Initialized json backend", "data_directory", config.DataDirectory)
		return &BackendResult{Backend: store, Cleanup: store.Close}, nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil

	case BoltBackend:
		store, err := bolt.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		f.logger.Info("Initialized bolt backend", "db_path", config.BoltDBPath)
		return &BackendResult{Backend: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		store := memory.New()
		f.logger.Warn("Initialized memory backend, data is lost on exit")
		return &BackendResult{Backend: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
