package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/sprawl/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRunWithRounds(t *testing.T) {
	db := openTestDB(t)

	runID := uuid.NewString()
	now := time.Now()
	err := db.RecordRun(Run{
		ID:           runID,
		Scenario:     "testdata/scenario.yaml",
		Seed:         42,
		StartedAt:    now,
		FinishedAt:   now.Add(3 * time.Second),
		InitialUrban: 10,
		TargetUrban:  14,
		FinalUrban:   14,
	}, []engine.RoundStats{
		{Round: 0, Quota: 2, Candidates: 54, Converted: 2, Threshold: 0.93, Pressure: 1.0},
		{Round: 1, Quota: 2, Candidates: 52, Converted: 2, Threshold: 0.45, Pressure: 0.5},
	})
	require.NoError(t, err)

	n, err := db.RoundCount(runID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRecordMetrics(t *testing.T) {
	db := openTestDB(t)

	runID := uuid.NewString()
	require.NoError(t, db.RecordRun(Run{ID: runID, Scenario: "s.yaml"}, nil))
	require.NoError(t, db.RecordMetrics(runID, engine.MetricsFromConfusion(engine.Confusion{TP: 3, FP: 1, FN: 2, TN: 4})))

	// A second metrics row for the same run violates the primary key.
	require.Error(t, db.RecordMetrics(runID, engine.Metrics{}))
}

func TestDuplicateRunRejected(t *testing.T) {
	db := openTestDB(t)

	runID := uuid.NewString()
	require.NoError(t, db.RecordRun(Run{ID: runID, Scenario: "s.yaml"}, nil))
	require.Error(t, db.RecordRun(Run{ID: runID, Scenario: "s.yaml"}, nil))
}
