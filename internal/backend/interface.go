package backend

import (
	"context"

	"carteira/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function
type BackendResult struct {
	Backend ledger.Backend
	Cleanup CleanupFunc
}

// Factory creates ledger backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// jsonfile
	DataDirectory string

	// sqlite
	SQLiteDBPath string

	// postgres
	PostgresURL string

	// bolt
	BoltDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	JSONBackend     BackendType = "json"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	BoltBackend     BackendType = "bolt"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	for _, t := range GetBackendTypes() {
		if bt == t {
			return true
		}
	}
	return false
}
