package domain

// TaskHandle is the identifier the upload service assigns to a submitted batch.
type TaskHandle string

// String returns the string representation.
func (h TaskHandle) String() string {
	return string(h)
}

// TaskStatus is the state of a remote task as reported by the service.
type TaskStatus string

// Known task states.
const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusStarted TaskStatus = "STARTED"
	TaskStatusRetry   TaskStatus = "RETRY"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
)

// IsTerminal returns true once the task will not change state again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailure
}

// String returns the string representation.
func (s TaskStatus) String() string {
	return string(s)
}

// TaskReport is the result of one status query.
type TaskReport struct {
	// Handle identifies the task.
	Handle TaskHandle `json:"task_id"`

	// Status is the reported task state.
	Status TaskStatus `json:"task_status"`

	// Result holds the service-specific payload attached to the task.
	// It is any JSON value: an object, a list of documents, or a
	// traceback string on FAILURE.
	Result any `json:"result,omitempty"`
}

// Outcome classifies how a batch ended.
type Outcome string

// Batch outcomes.
const (
	// OutcomeSucceeded means the remote task reported SUCCESS.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeFailed means the remote task reported FAILURE.
	OutcomeFailed Outcome = "failed"

	// OutcomeErrored means submission or polling raised a non-retryable error.
	OutcomeErrored Outcome = "errored"
)

// BatchResult is the typed outcome of submitting and tracking one batch.
type BatchResult struct {
	// Batch is the batch that was processed.
	Batch Batch

	// Handle is the remote task ID. Empty if submission failed.
	Handle TaskHandle

	// Outcome classifies the result.
	Outcome Outcome

	// Report is the last status report received, if any.
	Report *TaskReport

	// Err is the cause for OutcomeErrored.
	Err error
}

// Succeeded returns true if the batch's items can leave the pending set.
func (r BatchResult) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}
