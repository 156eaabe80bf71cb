package audit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tracker persists an audit trail of dedup runs: one run row plus one
// decision row per removed record, written in a single transaction.
type Tracker struct {
	db *sql.DB
}

// NewTracker creates a new audit tracker
func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Decision records one removal and the survivor it lost to.
type Decision struct {
	RecordID   int64
	SurvivorID int64
	Method     string
	Detail     string
}

// RunRecord summarizes one completed pipeline run.
type RunRecord struct {
	RunID       uuid.UUID
	SourceTable string
	StartedAt   time.Time
	FinishedAt  time.Time
	Removed     int
	Survivors   int
}

// EnsureSchema creates the audit tables when missing.
func (t *Tracker) EnsureSchema() error {
	_, err := t.db.Exec(`
		CREATE TABLE IF NOT EXISTS dedupe_runs (
			run_id UUID PRIMARY KEY,
			source_table TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			removed INT NOT NULL,
			survivors INT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create dedupe_runs: %w", err)
	}

	_, err = t.db.Exec(`
		CREATE TABLE IF NOT EXISTS dedupe_decisions (
			run_id UUID NOT NULL REFERENCES dedupe_runs(run_id),
			record_id BIGINT NOT NULL,
			survivor_id BIGINT NOT NULL,
			method TEXT NOT NULL,
			detail TEXT
		)`)
	if err != nil {
		return fmt.Errorf("failed to create dedupe_decisions: %w", err)
	}
	return nil
}

// RecordRun writes the run row and its decisions atomically.
func (t *Tracker) RecordRun(run RunRecord, decisions []Decision) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO dedupe_runs (run_id, source_table, started_at, finished_at, removed, survivors)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.RunID, run.SourceTable, run.StartedAt, run.FinishedAt, run.Removed, run.Survivors)
	if err != nil {
		return fmt.Errorf("failed to insert run row: %w", err)
	}

	for _, d := range decisions {
		_, err = tx.Exec(`
			INSERT INTO dedupe_decisions (run_id, record_id, survivor_id, method, detail)
			VALUES ($1, $2, $3, $4, $5)
		`, run.RunID, d.RecordID, d.SurvivorID, d.Method, d.Detail)
		if err != nil {
			return fmt.Errorf("failed to insert decision for record %d: %w", d.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit trail: %w", err)
	}
	return nil
}
