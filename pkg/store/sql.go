package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// sqlStore implements Store over database/sql. SQLite and PostgreSQL share
// it and differ only in placeholder syntax.
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

func openSQL(driver, dsn string, rebind func(string) string) (*sqlStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Initialize schema
	if err := CreateSchema(db, rebind); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqlStore{db: db, rebind: rebind}, nil
}

// AddRun records a run. Adding the same ID twice is a no-op.
func (s *sqlStore) AddRun(run *types.Run) error {
	_, err := s.db.Exec(s.rebind(`
		INSERT INTO runs (id, started_at, rules, grammars)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Rules,
		run.Grammars,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// AddOutcome stores an outcome and its records in one transaction.
func (s *sqlStore) AddOutcome(runID string, o *types.Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRow(s.rebind("SELECT COUNT(*) FROM outcomes WHERE run_id = ?"), runID).Scan(&seq); err != nil {
		return fmt.Errorf("counting outcomes: %w", err)
	}

	var kind, grammar string
	var dropped, hasResult int
	if o.Result != nil {
		kind, grammar, dropped, hasResult = o.Result.Kind.String(), o.Result.Grammar, o.Result.Dropped, 1
	}

	_, err = tx.Exec(s.rebind(`
		INSERT INTO outcomes (run_id, seq, path, status, count, error, report_path, kind, grammar, dropped, duration_ns, has_result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		runID, seq, o.Path, string(o.Status), o.Count, o.Error, o.ReportPath,
		kind, grammar, dropped, int64(o.Duration), hasResult,
	)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}

	if o.Result != nil {
		for i, rec := range o.Result.Records {
			rulesJSON, err := json.Marshal(rec.Rules)
			if err != nil {
				return fmt.Errorf("marshaling rules: %w", err)
			}
			_, err = tx.Exec(s.rebind(`
				INSERT INTO records (run_id, outcome_seq, idx, rules_json, component, content, line)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`),
				runID, seq, i, string(rulesJSON), rec.Component, rec.Content, rec.Line,
			)
			if err != nil {
				return fmt.Errorf("inserting record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing outcome: %w", err)
	}
	return nil
}

// GetRuns retrieves all runs, oldest first.
func (s *sqlStore) GetRuns() ([]*types.Run, error) {
	rows, err := s.db.Query("SELECT id, started_at, rules, grammars FROM runs ORDER BY started_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		var r types.Run
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.Rules, &r.Grammars); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run time: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetOutcomes retrieves the outcomes of a run with their records.
func (s *sqlStore) GetOutcomes(runID string) ([]*types.Outcome, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT seq, path, status, count, error, report_path, kind, grammar, dropped, duration_ns, has_result
		FROM outcomes WHERE run_id = ? ORDER BY seq
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}

	var outcomes []*types.Outcome
	var seqs []int
	for rows.Next() {
		var o types.Outcome
		var seq, dropped, hasResult int
		var status, kind, grammar string
		var duration int64
		if err := rows.Scan(&seq, &o.Path, &status, &o.Count, &o.Error, &o.ReportPath, &kind, &grammar, &dropped, &duration, &hasResult); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Status = types.Status(status)
		o.Duration = time.Duration(duration)
		if hasResult == 1 {
			o.Result = &types.ScanResult{Path: o.Path, Kind: types.FileKind(kind), Grammar: grammar, Dropped: dropped}
		}
		outcomes = append(outcomes, &o)
		seqs = append(seqs, seq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, o := range outcomes {
		if o.Result == nil {
			continue
		}
		if o.Result.Records, err = s.getRecords(runID, seqs[i]); err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

func (s *sqlStore) getRecords(runID string, seq int) ([]types.MatchRecord, error) {
	rows, err := s.db.Query(s.rebind(`
		SELECT rules_json, component, content, line
		FROM records WHERE run_id = ? AND outcome_seq = ? ORDER BY idx
	`), runID, seq)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.MatchRecord
	for rows.Next() {
		var rec types.MatchRecord
		var rulesJSON string
		if err := rows.Scan(&rulesJSON, &rec.Component, &rec.Content, &rec.Line); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(rulesJSON), &rec.Rules); err != nil {
			return nil, fmt.Errorf("unmarshaling rules: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// identity leaves "?" placeholders untouched.
func identity(query string) string {
	return query
}

// dollarPlaceholders rewrites "?" placeholders as $1, $2, ... outside
// single-quoted literals.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	n, quoted := 0, false
	for _, c := range query {
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
