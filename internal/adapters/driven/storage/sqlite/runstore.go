package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `job_id, input_type, project_key, index_key, total, remaining,
	failed_batches, status, checkpoint_path, started_at, finished_at`

// SaveRun stores or updates a run.
func (s *runStore) SaveRun(ctx context.Context, run domain.RunRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			total = excluded.total,
			remaining = excluded.remaining,
			failed_batches = excluded.failed_batches,
			status = excluded.status,
			checkpoint_path = excluded.checkpoint_path,
			finished_at = excluded.finished_at
	`, run.JobID, run.InputType.String(), run.ProjectKey, run.IndexKey,
		run.Total, run.Remaining, run.FailedBatches, string(run.Status),
		run.CheckpointPath, run.StartedAt.UTC(), nullTime(run.FinishedAt))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by job ID.
func (s *runStore) GetRun(ctx context.Context, jobID string) (*domain.RunRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE job_id = ?
	`, jobID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, job_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SaveBatch appends a batch record.
func (s *runStore) SaveBatch(ctx context.Context, batch domain.BatchRecord) error {
	items := make([]string, len(batch.Items))
	for i, item := range batch.Items {
		items[i] = string(item)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshalling items: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO batches (job_id, batch_index, task_id, items, outcome, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, batch.JobID, batch.BatchIndex, batch.TaskID.String(), string(itemsJSON),
		string(batch.Outcome), batch.Error, batch.FinishedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

// ListBatches returns the batches of a run in the order they were saved.
func (s *runStore) ListBatches(ctx context.Context, jobID string) ([]domain.BatchRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT job_id, batch_index, task_id, items, outcome, error, finished_at
		FROM batches WHERE job_id = ? ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.BatchRecord
	for rows.Next() {
		var b domain.BatchRecord
		var taskID, itemsJSON, outcome string
		var finishedAt sql.NullTime
		if err := rows.Scan(&b.JobID, &b.BatchIndex, &taskID, &itemsJSON,
			&outcome, &b.Error, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}

		var items []string
		if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
			return nil, fmt.Errorf("unmarshaling items: %w", err)
		}
		for _, item := range items {
			b.Items = append(b.Items, domain.WorkItem(item))
		}

		b.TaskID = domain.TaskHandle(taskID)
		b.Outcome = domain.Outcome(outcome)
		if finishedAt.Valid {
			b.FinishedAt = finishedAt.Time
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var run domain.RunRecord
	var inputType, status string
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(&run.JobID, &inputType, &run.ProjectKey, &run.IndexKey,
		&run.Total, &run.Remaining, &run.FailedBatches, &status,
		&run.CheckpointPath, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.InputType = domain.InputType(inputType)
	run.Status = domain.RunStatus(status)
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}
