package driven

import (
	"context"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// RunStore persists upload run history.
type RunStore interface {
	// SaveRun creates or updates a run record.
	SaveRun(ctx context.Context, run domain.RunRecord) error

	// GetRun retrieves a run by job ID.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, jobID string) (*domain.RunRecord, error)

	// ListRuns returns the most recent runs, newest first.
	// A limit of zero or less returns all runs.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// SaveBatch records the outcome of one batch.
	SaveBatch(ctx context.Context, batch domain.BatchRecord) error

	// ListBatches returns the batch records of a run in completion order.
	ListBatches(ctx context.Context, jobID string) ([]domain.BatchRecord, error)
}
