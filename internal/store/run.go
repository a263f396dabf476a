package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// Run is a persisted workflow run.
type Run struct {
	ID             int64            `json:"id"`
	BatchID        string           `json:"batch_id"`
	Index          int              `json:"index"`
	FlowIndex      int              `json:"flow_index"`
	Workflow       string           `json:"workflow"`
	Family         string           `json:"family"`
	Outcome        workflow.Outcome `json:"outcome"`
	StartedAt      time.Time        `json:"started_at,omitzero"`
	EndedAt        time.Time        `json:"ended_at,omitzero"`
	Elapsed        time.Duration    `json:"elapsed"`
	ErrorCount     int              `json:"error_count"`
	FalseNegatives int              `json:"false_negatives"`
	StepsDone      int              `json:"steps_done"`
	Steps          int              `json:"steps"`
	Error          string           `json:"error,omitempty"`
}

// RunRepository provides access to runs and their error records.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

const runColumns = `id, batch_id, run_index, flow_index, workflow, family, outcome,
	started_at, ended_at, elapsed_ms, error_count, false_negatives, steps_done, steps, error`

// Create stores a run result and its error records in one transaction and
// returns the new run ID.
func (r *RunRepository) Create(batchID string, res workflow.RunResult) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	s := res.Summary
	result, err := tx.Exec(
		`INSERT INTO runs (batch_id, run_index, flow_index, workflow, family, outcome,
			started_at, ended_at, elapsed_ms, error_count, false_negatives, steps_done, steps, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, res.Index, res.FlowIndex, res.Workflow, res.Family, string(s.Outcome),
		nullTime(s.StartedAt), nullTime(s.EndedAt), s.Elapsed.Milliseconds(),
		s.ErrorCount, s.FalseNegatives, s.StepsDone, s.Steps, errText,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, rec := range res.Records {
		if _, err := tx.Exec(
			`INSERT INTO run_errors (run_id, at, step, expected, observed, kind) VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Time.UTC(), rec.Step, rec.Expected.String(), rec.Observed.String(), string(rec.Kind),
		); err != nil {
			return 0, fmt.Errorf("insert run error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID retrieves a run.
func (r *RunRepository) GetByID(id int64) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListByBatch returns the runs of a batch in batch order.
func (r *RunRepository) ListByBatch(batchID string) ([]*Run, error) {
	return r.query(`SELECT `+runColumns+` FROM runs WHERE batch_id = ? ORDER BY run_index`, batchID)
}

// Recent returns the latest runs across all batches, newest first.
func (r *RunRepository) Recent(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
}

// Errors returns the error records of a run in the order they were observed.
// Returns ErrNotFound if the run does not exist.
func (r *RunRepository) Errors(runID int64) ([]workflow.ErrorRecord, error) {
	var exists int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(
		`SELECT at, step, expected, observed, kind FROM run_errors WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []workflow.ErrorRecord{}
	for rows.Next() {
		var rec workflow.ErrorRecord
		var expected, observed, kind string
		if err := rows.Scan(&rec.Time, &rec.Step, &expected, &observed, &kind); err != nil {
			return nil, err
		}
		rec.Expected = gesture.Label(expected)
		rec.Observed = gesture.Label(observed)
		rec.Kind = workflow.ErrorKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *RunRepository) query(q string, args ...any) ([]*Run, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var outcome string
	var started, ended sql.NullTime
	var elapsedMs int64

	if err := row.Scan(
		&run.ID, &run.BatchID, &run.Index, &run.FlowIndex, &run.Workflow, &run.Family, &outcome,
		&started, &ended, &elapsedMs, &run.ErrorCount, &run.FalseNegatives, &run.StepsDone, &run.Steps, &run.Error,
	); err != nil {
		return nil, err
	}

	run.Outcome = workflow.Outcome(outcome)
	run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if started.Valid {
		run.StartedAt = started.Time
	}
	if ended.Valid {
		run.EndedAt = ended.Time
	}
	return run, nil
}
