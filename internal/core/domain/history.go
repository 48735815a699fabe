package domain

import "time"

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

// Run states.
const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// RunRecord is the persisted history of one upload run.
type RunRecord struct {
	JobID          string
	InputType      InputType
	ProjectKey     string
	IndexKey       string
	Total          int
	Remaining      int
	FailedBatches  int
	Status         RunStatus
	CheckpointPath string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// BatchRecord is the persisted outcome of one batch.
type BatchRecord struct {
	JobID      string
	BatchIndex int
	TaskID     TaskHandle
	Items      []WorkItem
	Outcome    Outcome
	Error      string
	FinishedAt time.Time
}

// NewBatchRecord builds a history record from a batch result.
func NewBatchRecord(jobID string, result BatchResult, at time.Time) BatchRecord {
	rec := BatchRecord{
		JobID:      jobID,
		BatchIndex: result.Batch.Index,
		TaskID:     result.Handle,
		Items:      result.Batch.Items,
		Outcome:    result.Outcome,
		FinishedAt: at,
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	return rec
}
