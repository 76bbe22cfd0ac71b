package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/google/uuid"
)

// Fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal implements orchestrator.Journal on the batch_runs and
// batch_steps tables.
type SQLiteJournal struct {
	db    *sql.DB
	w     db.Writer
	newID func() string
}

var _ orchestrator.Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal writes through w and reads from database.
func NewSQLiteJournal(database *sql.DB, w db.Writer) *SQLiteJournal {
	return &SQLiteJournal{db: database, w: w, newID: uuid.NewString}
}

// Record stores the outcome and all of its steps in one transaction.
func (j *SQLiteJournal) Record(ctx context.Context, out *orchestrator.Outcome) error {
	if out == nil || out.Plan == nil || out.Plan.Intent == nil {
		return fmt.Errorf("recording batch: outcome has no intent")
	}
	run := fromOutcome(out)
	run.ID = j.newID()

	return j.w.Write(ctx, "recording batch", func(ctx context.Context, tx db.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		for _, s := range run.Steps {
			if err := insertStep(ctx, tx, run.ID, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func fromOutcome(out *orchestrator.Outcome) *Run {
	plan := out.Plan
	run := &Run{
		Intent:     string(plan.Intent.Kind()),
		Subject:    plan.Intent.Subject(),
		Status:     string(out.Status()),
		Issued:     out.Issued,
		Succeeded:  out.Succeeded,
		Skipped:    len(plan.Skipped),
		Warnings:   plan.Warnings,
		StartedAt:  out.StartedAt,
		FinishedAt: out.FinishedAt,
	}
	if out.Err != nil {
		run.Error = out.Err.Error()
	}
	if v, ok := out.Created(); ok {
		run.CreatedVehicleID = v.ID
	}

	results := make(map[int]orchestrator.StepResult, len(out.Results))
	for _, r := range out.Results {
		results[r.Step.Seq] = r
	}
	for _, s := range plan.Steps() {
		rec := StepRecord{
			Seq:    s.Seq,
			Kind:   s.Kind.String(),
			Op:     string(s.Op),
			Entity: s.EntityKey(),
			Label:  s.Label,
		}
		if r, ok := results[s.Seq]; ok {
			rec.Attempted = r.Attempted
			rec.Duration = r.Duration
			if r.Err != nil {
				rec.Error = r.Err.Error()
			}
		}
		run.Steps = append(run.Steps, rec)
	}
	return run
}

func insertRun(ctx context.Context, tx db.Tx, r *Run) error {
	query := `INSERT INTO batch_runs (id, intent, subject, status, issued, succeeded, skipped,
		error, warnings, created_vehicle_id, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query,
		r.ID,
		r.Intent,
		r.Subject,
		r.Status,
		r.Issued,
		r.Succeeded,
		r.Skipped,
		r.Error,
		strings.Join(r.Warnings, "\n"),
		r.CreatedVehicleID,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting batch run: %w", err)
	}
	return nil
}

func insertStep(ctx context.Context, tx db.Tx, runID string, s StepRecord) error {
	query := `INSERT INTO batch_steps (run_id, seq, kind, op, entity, label, attempted, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query,
		runID,
		s.Seq,
		s.Kind,
		s.Op,
		s.Entity,
		s.Label,
		boolToInt(s.Attempted),
		s.Error,
		s.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting batch step %d: %w", s.Seq, err)
	}
	return nil
}

const runColumns = `id, intent, subject, status, issued, succeeded, skipped,
	error, warnings, created_vehicle_id, started_at, finished_at`

// List returns the most recent runs first, with their steps. A limit of
// zero or less returns every run.
func (j *SQLiteJournal) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + runColumns + ` FROM batch_runs
		ORDER BY started_at DESC, rowid DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing batch runs: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.Steps, err = j.listSteps(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Get returns one run by id or unique id prefix.
func (j *SQLiteJournal) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("batch run: %w", ErrNotFound)
	}
	query := `SELECT ` + runColumns + ` FROM batch_runs WHERE id LIKE ? || '%' LIMIT 2`
	rows, err := j.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting batch run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("batch run %s: %w", id, ErrNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("batch run prefix %q is ambiguous", id)
	}
	run := runs[0]
	if run.Steps, err = j.listSteps(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// Prune deletes runs that started before cutoff; their steps go with them.
func (j *SQLiteJournal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := j.w.Write(ctx, "pruning journal", func(ctx context.Context, tx db.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM batch_runs WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("pruning batch runs: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (j *SQLiteJournal) listSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	query := `SELECT seq, kind, op, entity, label, attempted, error, duration_ms
		FROM batch_steps WHERE run_id = ? ORDER BY seq`
	rows, err := j.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("listing batch steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var s StepRecord
		var attempted int
		var ms int64
		if err := rows.Scan(&s.Seq, &s.Kind, &s.Op, &s.Entity, &s.Label, &attempted, &s.Error, &ms); err != nil {
			return nil, fmt.Errorf("scanning batch step: %w", err)
		}
		s.Attempted = attempted != 0
		s.Duration = time.Duration(ms) * time.Millisecond
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch steps: %w", err)
	}
	return steps, nil
}

// scanRuns drains and closes rows, so callers can query steps afterwards
// on a single-connection database.
func scanRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var warnings, startedAt, finishedAt string
		err := rows.Scan(&r.ID, &r.Intent, &r.Subject, &r.Status, &r.Issued, &r.Succeeded, &r.Skipped,
			&r.Error, &warnings, &r.CreatedVehicleID, &startedAt, &finishedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning batch run: %w", err)
		}
		if warnings != "" {
			r.Warnings = strings.Split(warnings, "\n")
		}
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch runs: %w", err)
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
