package driven

import "github.com/custodia-labs/dsbulk/internal/core/domain"

// CheckpointStore persists the pending set so an interrupted run can resume.
type CheckpointStore interface {
	// Save replaces the stored pending set with items.
	// A reader never observes a partially written set.
	Save(items []domain.WorkItem) error

	// Load returns the stored pending set.
	Load() ([]domain.WorkItem, error)

	// Path returns the location of the checkpoint.
	Path() string
}
