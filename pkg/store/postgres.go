package store

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL through the pgx driver.
type PostgresStore struct {
	*sqlStore
}

// NewPostgres creates a PostgreSQL-based store from a postgres:// DSN.
func NewPostgres(dsn string) (*PostgresStore, error) {
	s, err := openSQL("pgx", dsn, dollarPlaceholders)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{s}, nil
}
