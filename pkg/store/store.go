// Package store persists scan runs and their per-file outcomes.
package store

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// Store provides persistence for scan history.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (memory, SQLite, PostgreSQL).
type Store interface {
	// AddRun records the start of a scan run.
	AddRun(run *types.Run) error

	// AddOutcome stores one file outcome, including its records, under runID.
	AddOutcome(runID string, o *types.Outcome) error

	// GetRuns retrieves all runs, oldest first.
	GetRuns() ([]*types.Run, error)

	// GetOutcomes retrieves the outcomes of a run in the order they were added.
	GetOutcomes(runID string) ([]*types.Outcome, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is a SQLite file path, a postgres:// DSN, or ":memory:".
	Path string
}

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// New creates a Store for cfg.Path.
func New(cfg Config) (Store, error) {
	switch {
	case cfg.Path == "":
		return nil, fmt.Errorf("path is required")
	case cfg.Path == MemoryPath:
		return NewMemory(), nil
	case isPostgresDSN(cfg.Path):
		return NewPostgres(cfg.Path)
	}
	return NewSQLite(cfg.Path)
}

func isPostgresDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}
