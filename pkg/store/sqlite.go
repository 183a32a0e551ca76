package store

import (
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite (pure Go driver, no CGO).
type SQLiteStore struct {
	*sqlStore
}

// NewSQLite creates a SQLite-based store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	s, err := openSQL("sqlite", path, identity)
	if err != nil {
		return nil, err
	}
	// database/sql pools connections; SQLite serialises writers anyway.
	s.db.SetMaxOpenConns(1)
	return &SQLiteStore{s}, nil
}
