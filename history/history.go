// Package history records scan results in a local sqlite database so later
// scans can be compared against earlier ones.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/riadafridishibly/atimewalk/scanner"
	_ "modernc.org/sqlite"
)

// ErrNoRun is returned when no run has been recorded for a root and strategy.
var ErrNoRun = errors.New("no recorded run")

// RunSummary describes a recorded run without its entries.
type RunSummary struct {
	ID        int64
	Root      string
	Strategy  scanner.Strategy
	ScannedAt time.Time
	Entries   int
}

// Run is a recorded run with its entries in scan order.
type Run struct {
	RunSummary
	Result scanner.ScanResult
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    root TEXT NOT NULL,
    strategy TEXT NOT NULL,
    scanned_at INTEGER NOT NULL,
    entries INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_root ON runs (root, strategy, scanned_at);
CREATE TABLE IF NOT EXISTS entries (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    path TEXT NOT NULL,
    atime_sec INTEGER NOT NULL,
    atime_nsec INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	db.Exec(`PRAGMA journal_mode=WAL;`)
	db.Exec(`PRAGMA synchronous=NORMAL;`)
	db.Exec(`PRAGMA busy_timeout=5000;`)

	// DeleteRuns relies on the cascade to drop entries rows.
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun stores result as a new run and returns its id.
func (s *Store) SaveRun(root string, strategy scanner.Strategy, scannedAt time.Time, result scanner.ScanResult) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (root, strategy, scanned_at, entries) VALUES (?, ?, ?, ?)`,
		root, strategy.String(), scannedAt.UnixNano(), len(result),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (run_id, seq, path, atime_sec, atime_nsec) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, e := range result {
		if _, err := stmt.Exec(id, i, e.Path, e.Atime.Unix(), e.Atime.Nanosecond()); err != nil {
			return 0, fmt.Errorf("saving %s: %w", e.Path, err)
		}
	}
	return id, tx.Commit()
}

// LatestRun returns the most recent run for root and strategy.
func (s *Store) LatestRun(root string, strategy scanner.Strategy) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, root, strategy, scanned_at, entries FROM runs
         WHERE root = ? AND strategy = ?
         ORDER BY scanned_at DESC, id DESC LIMIT 1`,
		root, strategy.String(),
	)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, err
	}

	result, err := s.entries(summary.ID)
	if err != nil {
		return nil, err
	}
	return &Run{RunSummary: summary, Result: result}, nil
}

// Runs lists the runs recorded for root, most recent first.
func (s *Store) Runs(root string) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, root, strategy, scanned_at, entries FROM runs
         WHERE root = ? ORDER BY scanned_at DESC, id DESC`,
		root,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	return runs, rows.Err()
}

// DeleteRuns removes every run recorded for root.
func (s *Store) DeleteRuns(root string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE root = ?", root)
	return err
}

func (s *Store) entries(runID int64) (scanner.ScanResult, error) {
	rows, err := s.db.Query(
		"SELECT path, atime_sec, atime_nsec FROM entries WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result scanner.ScanResult
	for rows.Next() {
		var path string
		var sec, nsec int64
		if err := rows.Scan(&path, &sec, &nsec); err != nil {
			return nil, err
		}
		result = append(result, scanner.Entry{Path: path, Atime: time.Unix(sec, nsec)})
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (RunSummary, error) {
	var summary RunSummary
	var strategy string
	var scannedAt int64
	if err := row.Scan(&summary.ID, &summary.Root, &strategy, &scannedAt, &summary.Entries); err != nil {
		return RunSummary{}, err
	}
	st, err := scanner.ParseStrategy(strategy)
	if err != nil {
		return RunSummary{}, err
	}
	summary.Strategy = st
	summary.ScannedAt = time.Unix(0, scannedAt)
	return summary, nil
}
