package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu      sync.RWMutex
	runs    map[string]domain.RunRecord
	batches map[string][]domain.BatchRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:    make(map[string]domain.RunRecord),
		batches: make(map[string][]domain.BatchRecord),
	}
}

// SaveRun stores or updates a run.
func (s *RunStore) SaveRun(_ context.Context, run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.JobID] = run
	return nil
}

// GetRun retrieves a run by job ID.
func (s *RunStore) GetRun(_ context.Context, jobID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns runs ordered by start time, newest first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SaveBatch appends a batch record.
func (s *RunStore) SaveBatch(_ context.Context, batch domain.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch.Items = append([]domain.WorkItem(nil), batch.Items...)
	s.batches[batch.JobID] = append(s.batches[batch.JobID], batch)
	return nil
}

// ListBatches returns the batches of a run in the order they were saved.
func (s *RunStore) ListBatches(_ context.Context, jobID string) ([]domain.BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BatchRecord(nil), s.batches[jobID]...), nil
}
