// Package store archives simulation snapshots to SQLite.
//
// The core treats persistence as an external collaborator: it only
// guarantees that snapshots are value-copyable. This package is that
// collaborator: it records each tick's succeeded snapshots under a
// run, so a finished (or crashed) simulation can be inspected and its
// per-object history replayed beyond the in-memory window.
//
// SQLite runs in WAL mode with a busy timeout so a watcher process can
// read an archive while a run is writing it.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/csmangum/TimeBandit/pkg/model"

	_ "modernc.org/sqlite"
)

// Run describes one archived simulation run.
type Run struct {
	ID       int64     `json:"id"`
	Scenario string    `json:"scenario"`
	Started  time.Time `json:"started_at"`
}

// ArchivedSnapshot is a snapshot row joined with its tick number.
type ArchivedSnapshot struct {
	Tick     uint64         `json:"tick"`
	Snapshot model.Snapshot `json:"snapshot"`
}

// Store manages all SQLite operations for the snapshot archive.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the archive database and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default config.
// All archive write operations should use this to handle transient
// SQLite errors (BUSY, LOCKED, IOERR_SHORT_READ) under concurrent access.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario   TEXT NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      INTEGER NOT NULL REFERENCES runs(id),
		tick        INTEGER NOT NULL,
		root        TEXT NOT NULL,
		temporal    TEXT NOT NULL,
		cycle       INTEGER NOT NULL,
		step        INTEGER NOT NULL,
		step_size   INTEGER NOT NULL,
		payload     TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run_tick ON snapshots(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run_root ON snapshots(run_id, root, tick);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_run_temporal ON snapshots(run_id, temporal);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(scenario string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var id int64
	err := retryOnContention(func() error {
		res, err := s.db.Exec(
			`INSERT INTO runs (scenario, started_at) VALUES (?, ?)`, scenario, now,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// LastRun returns the most recently started run, or nil if none exist.
func (s *Store) LastRun() (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, scenario, started_at FROM runs ORDER BY id DESC LIMIT 1`,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, scenario, started_at FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedStr string
		if err := rows.Scan(&r.ID, &r.Scenario, &startedStr); err != nil {
			return nil, err
		}
		r.Started, err = time.Parse(time.RFC3339Nano, startedStr)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var startedStr string
	if err := row.Scan(&r.ID, &r.Scenario, &startedStr); err != nil {
		return nil, err
	}
	var parseErr error
	r.Started, parseErr = time.Parse(time.RFC3339Nano, startedStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parse started_at for run %d: %w", r.ID, parseErr)
	}
	return &r, nil
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// ArchiveStep records every succeeded snapshot of one tick's result.
// Failures are not archived; they live in the run's log output. The
// insert batch runs in one transaction so a tick is archived whole or
// not at all.
func (s *Store) ArchiveStep(runID int64, result model.StepResult) error {
	if len(result.Succeeded) == 0 {
		return nil
	}
	roots := make([]string, 0, len(result.Succeeded))
	for root := range result.Succeeded {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	return retryOnContention(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, root := range roots {
			snap := result.Succeeded[root]
			payload, err := json.Marshal(snap.Payload)
			if err != nil {
				return fmt.Errorf("marshal payload for %s: %w", root, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO snapshots (run_id, tick, root, temporal, cycle, step, step_size, payload, recorded_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, result.Tick, snap.Root, snap.Temporal, snap.Cycle, snap.Step,
				snap.StepSize, string(payload), snap.Recorded.Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert snapshot %s: %w", snap.Temporal, err)
			}
		}
		return tx.Commit()
	})
}

// ListSnapshots returns archived snapshots for a run in tick order,
// oldest first. root narrows to one object when non-empty; limit caps
// the result (most recent entries win).
func (s *Store) ListSnapshots(runID int64, root string, limit int) ([]ArchivedSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT tick, root, temporal, cycle, step, step_size, COALESCE(payload,''), recorded_at
	          FROM snapshots WHERE run_id = ?`
	args := []any{runID}
	if root != "" {
		query += ` AND root = ?`
		args = append(args, root)
	}
	// Take the newest rows, then flip back to chronological order. The
	// reversal also flips the root order, so DESC here means roots come
	// out ascending within each tick.
	query += ` ORDER BY tick DESC, root DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

// CountSnapshots returns the number of archived snapshots for a run.
func (s *Store) CountSnapshots(runID int64) int64 {
	var count int64
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM snapshots WHERE run_id = ?`, runID,
	).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanSnapshots(rows *sql.Rows) ([]ArchivedSnapshot, error) {
	var snaps []ArchivedSnapshot
	for rows.Next() {
		var a ArchivedSnapshot
		var payloadStr, recordedStr string
		if err := rows.Scan(&a.Tick, &a.Snapshot.Root, &a.Snapshot.Temporal,
			&a.Snapshot.Cycle, &a.Snapshot.Step, &a.Snapshot.StepSize,
			&payloadStr, &recordedStr); err != nil {
			return nil, err
		}
		if payloadStr != "" {
			if err := json.Unmarshal([]byte(payloadStr), &a.Snapshot.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload for %s: %w", a.Snapshot.Temporal, err)
			}
		}
		var parseErr error
		a.Snapshot.Recorded, parseErr = time.Parse(time.RFC3339Nano, recordedStr)
		if parseErr != nil {
			return nil, fmt.Errorf("parse recorded_at for %s: %w", a.Snapshot.Temporal, parseErr)
		}
		snaps = append(snaps, a)
	}
	return snaps, rows.Err()
}
