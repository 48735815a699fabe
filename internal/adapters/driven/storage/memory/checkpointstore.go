package memory

import (
	"sync"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps the pending set in memory for testing.
// Every saved snapshot is retained so tests can inspect the write sequence.
type CheckpointStore struct {
	mu        sync.RWMutex
	snapshots [][]domain.WorkItem
	saveErr   error
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

// FailSaves makes every subsequent Save return err. Pass nil to reset.
func (s *CheckpointStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Save records a copy of items as the current checkpoint.
func (s *CheckpointStore) Save(items []domain.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots = append(s.snapshots, append([]domain.WorkItem{}, items...))
	return nil
}

// Load returns the most recent checkpoint.
func (s *CheckpointStore) Load() ([]domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return nil, domain.ErrNotFound
	}
	last := s.snapshots[len(s.snapshots)-1]
	return append([]domain.WorkItem{}, last...), nil
}

// Snapshots returns every saved checkpoint in order.
func (s *CheckpointStore) Snapshots() [][]domain.WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]domain.WorkItem, len(s.snapshots))
	for i, snap := range s.snapshots {
		out[i] = append([]domain.WorkItem{}, snap...)
	}
	return out
}

// Path returns the checkpoint location.
func (s *CheckpointStore) Path() string {
	return ":memory:"
}
