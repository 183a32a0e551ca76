package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// The statements below are valid for both SQLite and PostgreSQL.
var schemaStatements = []struct {
	name string
	ddl  string
}{
	{"schema_version", `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`},
	{"runs", `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY NOT NULL,
			started_at TEXT NOT NULL,
			rules TEXT NOT NULL,
			grammars TEXT NOT NULL
		)`},
	{"outcomes", `
		CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			status TEXT NOT NULL,
			count INTEGER NOT NULL,
			error TEXT NOT NULL,
			report_path TEXT NOT NULL,
			kind TEXT NOT NULL,
			grammar TEXT NOT NULL,
			dropped INTEGER NOT NULL,
			duration_ns BIGINT NOT NULL,
			has_result INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`},
	{"records", `
		CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			outcome_seq INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			rules_json TEXT NOT NULL,
			component TEXT NOT NULL,
			content TEXT NOT NULL,
			line INTEGER NOT NULL,
			PRIMARY KEY (run_id, outcome_seq, idx)
		)`},
}

// CreateSchema creates the database schema if it doesn't exist.
// rebind adapts placeholders to the driver's dialect.
func CreateSchema(db *sql.DB, rebind func(string) string) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}

	// Insert version if table is empty
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(rebind("INSERT INTO schema_version (version) VALUES (?)"), SchemaVersion); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}
	return nil
}
