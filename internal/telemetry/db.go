// Package telemetry provides SQLite-based run provenance storage: one row
// per run, per allocation round, and per evaluation metric set.
package telemetry

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/sprawl/internal/engine"
)

// DB wraps a SQLite connection for run telemetry.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		initial_urban INTEGER NOT NULL,
		target_urban INTEGER NOT NULL,
		final_urban INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rounds (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		quota INTEGER NOT NULL,
		candidates INTEGER NOT NULL,
		converted INTEGER NOT NULL,
		threshold REAL NOT NULL,
		pressure REAL NOT NULL,
		PRIMARY KEY (run_id, round)
	);

	CREATE TABLE IF NOT EXISTS metrics (
		run_id TEXT PRIMARY KEY,
		tp INTEGER NOT NULL,
		fp INTEGER NOT NULL,
		fn INTEGER NOT NULL,
		tn INTEGER NOT NULL,
		precision REAL NOT NULL,
		recall REAL NOT NULL,
		f1 REAL NOT NULL,
		iou REAL NOT NULL,
		kappa REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_run ON rounds(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one simulation run's provenance record.
type Run struct {
	ID           string
	Scenario     string
	Seed         int64
	StartedAt    time.Time
	FinishedAt   time.Time
	InitialUrban int
	TargetUrban  int
	FinalUrban   int
	Failed       bool
}

// RecordRun writes the run row and its round statistics in one transaction.
func (db *DB) RecordRun(run Run, rounds []engine.RoundStats) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	failed := 0
	if run.Failed {
		failed = 1
	}
	_, err = tx.Exec(`INSERT INTO runs
		(id, scenario, seed, started_at, finished_at, initial_urban, target_urban, final_urban, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Scenario, run.Seed,
		run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.InitialUrban, run.TargetUrban, run.FinalUrban, failed)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range rounds {
		_, err = tx.Exec(`INSERT INTO rounds
			(run_id, round, quota, candidates, converted, threshold, pressure)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Round, r.Quota, r.Candidates, r.Converted, r.Threshold, r.Pressure)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", r.Round, err)
		}
	}
	return tx.Commit()
}

// RecordMetrics writes the evaluation metrics for a run.
func (db *DB) RecordMetrics(runID string, m engine.Metrics) error {
	_, err := db.conn.Exec(`INSERT INTO metrics
		(run_id, tp, fp, fn, tn, precision, recall, f1, iou, kappa)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.TP, m.FP, m.FN, m.TN,
		m.Precision, m.Recall, m.F1, m.IoU, m.Kappa)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}

// RoundCount returns how many round rows a run has.
func (db *DB) RoundCount(runID string) (int, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM rounds WHERE run_id = ?", runID); err != nil {
		return 0, err
	}
	return n, nil
}
