package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
)

// Ensure RunHistoryService implements the interface.
var _ driving.RunHistoryService = (*RunHistoryService)(nil)

// RunHistoryService reads recorded runs from the run store.
type RunHistoryService struct {
	runs driven.RunStore
}

// NewRunHistoryService creates a new run history service.
func NewRunHistoryService(runs driven.RunStore) *RunHistoryService {
	return &RunHistoryService{runs: runs}
}

// List returns the most recent runs, newest first.
func (s *RunHistoryService) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.runs == nil {
		return nil, errors.New("run history not configured")
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns a run and its batch records.
func (s *RunHistoryService) Get(ctx context.Context, jobID string) (*domain.RunRecord, []domain.BatchRecord, error) {
	if s.runs == nil {
		return nil, nil, errors.New("run history not configured")
	}
	run, err := s.runs.GetRun(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("get run %s: %w", jobID, err)
	}
	batches, err := s.runs.ListBatches(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("list batches of %s: %w", jobID, err)
	}
	return run, batches, nil
}
