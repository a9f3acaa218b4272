// Package storage provides the SQLite run ledger: one record per
// simulation run plus per-step population statistics.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusStopped  = "stopped" // ended early by an output
	StatusFailed   = "failed"
)

// Store manages the SQLite database connection for the run ledger.
type Store struct {
	db *sql.DB
}

// Run is one recorded simulation run.
type Run struct {
	ID         int64
	Model      string
	Rule       string
	Shape      []int
	Overflow   string
	Replicates int
	Steps      int // steps requested
	StepsRun   int
	Seed       uint64
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// StepStat is the population of one grid of one replicate at one step.
type StepStat struct {
	RunID      int64
	Replicate  int
	Step       int
	Grid       string
	Population int
	Total      float64
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			rule TEXT NOT NULL DEFAULT '',
			shape TEXT NOT NULL,
			overflow TEXT NOT NULL,
			replicates INTEGER NOT NULL DEFAULT 1,
			steps INTEGER NOT NULL DEFAULT 0,
			steps_run INTEGER NOT NULL DEFAULT 0,
			seed INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model);

		CREATE TABLE IF NOT EXISTS run_steps (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			replicate INTEGER NOT NULL,
			step INTEGER NOT NULL,
			grid TEXT NOT NULL,
			population INTEGER NOT NULL,
			total REAL NOT NULL,
			PRIMARY KEY (run_id, replicate, step, grid)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records a new run in the running state and returns its ID.
func (s *Store) BeginRun(r Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (model, rule, shape, overflow, replicates, steps, seed, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Model, r.Rule, FormatShape(r.Shape), r.Overflow, max(r.Replicates, 1), r.Steps, int64(r.Seed), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// FinishRun closes a run. status is derived from runErr unless stopped
// is set: nil means finished, anything else failed.
func (s *Store) FinishRun(id int64, stepsRun int, stopped bool, runErr error, elapsed time.Duration) error {
	status, msg := StatusFinished, ""
	switch {
	case runErr != nil:
		status, msg = StatusFailed, runErr.Error()
	case stopped:
		status = StatusStopped
	}
	res, err := s.db.Exec(
		`UPDATE runs
		 SET steps_run = ?, status = ?, error = ?, duration_ms = ?, finished_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		stepsRun, status, msg, elapsed.Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: no run %d", id)
	}
	return nil
}

// SaveStepStats writes a batch of step statistics in one transaction.
// Rewriting an existing (run, replicate, step, grid) replaces it.
func (s *Store) SaveStepStats(stats []StepStat) error {
	if len(stats) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO run_steps (run_id, replicate, step, grid, population, total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("storage: cannot prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stats {
		if _, err := stmt.Exec(st.RunID, st.Replicate, st.Step, st.Grid, st.Population, st.Total); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: cannot save step %d: %w", st.Step, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit step stats: %w", err)
	}
	return nil
}

const runColumns = `id, model, rule, shape, overflow, replicates, steps, steps_run, seed,
	status, error, duration_ms, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var shape string
	var seed, ms int64
	var startedAt, finishedAt any
	err := sc.Scan(&r.ID, &r.Model, &r.Rule, &shape, &r.Overflow, &r.Replicates, &r.Steps, &r.StepsRun,
		&seed, &r.Status, &r.Error, &ms, &startedAt, &finishedAt)
	if err != nil {
		return r, err
	}
	r.Shape = parseShape(shape)
	r.Seed = uint64(seed)
	r.Duration = time.Duration(ms) * time.Millisecond
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTime(finishedAt)
	return r, nil
}

// Runs retrieves the most recent runs, newest first. An empty model
// selects every model.
func (s *Store) Runs(model string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE ? = '' OR model = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		model, model, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run by its ID. It returns nil, nil when the run
// doesn't exist.
func (s *Store) RunByID(id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// StepStats retrieves the statistics of a run ordered by step, replicate
// and grid. A negative replicate selects every replicate.
func (s *Store) StepStats(runID int64, replicate int) ([]StepStat, error) {
	rows, err := s.db.Query(
		`SELECT run_id, replicate, step, grid, population, total
		 FROM run_steps
		 WHERE run_id = ? AND (? < 0 OR replicate = ?)
		 ORDER BY step, replicate, grid`,
		runID, replicate, replicate,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query step stats: %w", err)
	}
	defer rows.Close()

	var stats []StepStat
	for rows.Next() {
		var st StepStat
		if err := rows.Scan(&st.RunID, &st.Replicate, &st.Step, &st.Grid, &st.Population, &st.Total); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ModelStats contains aggregated statistics for a model.
type ModelStats struct {
	Model      string
	RunsCount  int
	TotalSteps int64
	AvgSteps   float64
	Failed     int
	LastRun    time.Time
}

// ModelStats retrieves statistics for every model that has been run.
func (s *Store) ModelStats() (map[string]*ModelStats, error) {
	rows, err := s.db.Query(
		`SELECT model, COUNT(*), SUM(steps_run), AVG(steps_run),
		        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), MAX(started_at)
		 FROM runs
		 GROUP BY model`,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get model stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*ModelStats)
	for rows.Next() {
		var ms ModelStats
		var lastRun any
		if err := rows.Scan(&ms.Model, &ms.RunsCount, &ms.TotalSteps, &ms.AvgSteps, &ms.Failed, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		ms.LastRun = parseTime(lastRun)
		stats[ms.Model] = &ms
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// FormatShape renders a shape the way the ledger stores it, e.g. "48x96".
func FormatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "x")
}

func parseShape(s string) []int {
	if s == "" {
		return nil
	}
	var shape []int
	for _, p := range strings.Split(s, "x") {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		shape = append(shape, n)
	}
	return shape
}
