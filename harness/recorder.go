package harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const recorderSchema = `
CREATE TABLE IF NOT EXISTS case_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	case_name   TEXT    NOT NULL,
	mode        TEXT    NOT NULL,
	direction   TEXT    NOT NULL,
	protocol    TEXT    NOT NULL,
	success     INTEGER NOT NULL,
	output      TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL
)`

// CaseResult is one recorded harness run.
type CaseResult struct {
	Case      string
	Mode      string
	Direction string
	Protocol  string
	Success   bool
	Output    string
	Duration  time.Duration
}

// Recorder persists harness case results in a sqlite ledger, so flaky
// generated-project builds can be diagnosed across runs.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (creating if needed) the ledger at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recorder %s: %w", path, err)
	}
	if _, err := db.Exec(recorderSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize recorder %s: %w", path, err)
	}
	return &Recorder{db: db}, nil
}

// NewRecorder wraps an existing database handle. The schema is assumed to
// be in place.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts one case result.
func (r *Recorder) Record(ctx context.Context, res CaseResult) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO case_results (case_name, mode, direction, protocol, success, output, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Case, res.Mode, res.Direction, res.Protocol, res.Success, res.Output, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record case %s: %w", res.Case, err)
	}
	return nil
}

// Failures returns the recorded failing runs, oldest first.
func (r *Recorder) Failures(ctx context.Context) ([]CaseResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT case_name, mode, direction, protocol, success, output, duration_ms
		 FROM case_results WHERE success = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []CaseResult
	for rows.Next() {
		var res CaseResult
		var durationMS int64
		if err := rows.Scan(&res.Case, &res.Mode, &res.Direction, &res.Protocol, &res.Success, &res.Output, &durationMS); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		res.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, res)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
