package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// CleanupFunc releases what a backend holds open.
type CleanupFunc func() error

// BackendResult is the ledger store plus the optional event client.
type BackendResult struct {
	Store *storage.Repository
	// AMQP is nil when events are disabled.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the event publisher, or a nil interface when events are
// disabled so services skip publishing entirely.
func (r *BackendResult) Publisher() services.EventPublisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
