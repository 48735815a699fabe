package driving

import (
	"context"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// RunHistoryService reads recorded upload runs.
type RunHistoryService interface {
	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Get returns a run and its batch records.
	Get(ctx context.Context, jobID string) (*domain.RunRecord, []domain.BatchRecord, error)
}
