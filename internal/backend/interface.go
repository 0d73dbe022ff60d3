package backend

import (
	"context"

	gsheet "petspese/internal/sheets/google"
	"petspese/internal/ports"
	"petspese/internal/services"
)

// Backend stores the transaction log and the profile registry.
type Backend interface {
	ports.StateLoader
	ports.StateCommitter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and what is wired around it.
type BackendResult struct {
	Type    BackendType
	Backend Backend
	// Photos always live in the data directory.
	Photos ports.PhotoStore
	// Publisher is nil when AMQP is disabled or unreachable.
	Publisher services.EventPublisher
	// Ready reports whether the backend can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// DataDir holds the files backend and the photos of every backend.
	DataDir string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	Sheets gsheet.Config

	// AMQP, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FilesBackend  BackendType = "files"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FilesBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
