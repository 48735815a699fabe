package domain

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is the delay between task status queries.
const DefaultPollInterval = 5 * time.Second

// RunConfig is the immutable context of one upload run.
type RunConfig struct {
	// JobID names the run; it appears in checkpoint and report file names.
	JobID string

	// InputType selects URL or S3 mode.
	InputType InputType

	// BatchSize is the number of work items per remote task.
	// Must be 1 in S3 mode.
	BatchSize int

	// Concurrency is the maximum number of batches in flight.
	Concurrency int

	// PollInterval is the delay between status queries and before
	// retrying a transient poll error.
	PollInterval time.Duration

	// MaxPollRetries bounds consecutive transient poll errors per batch.
	// Zero means retry until the task resolves.
	MaxPollRetries int

	// Collection is where documents are uploaded.
	Collection CollectionCoordinates

	// S3 holds the base coordinates for S3 mode.
	S3 *S3Coordinates
}

// Validate checks the configuration before any work begins.
// Every returned error wraps ErrInvalidConfig.
func (c RunConfig) Validate() error {
	var errs []error

	if !c.InputType.IsValid() {
		errs = append(errs, fmt.Errorf("input type %q is not URL or S3", c.InputType))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.MaxPollRetries < 0 {
		errs = append(errs, fmt.Errorf("max poll retries must not be negative, got %d", c.MaxPollRetries))
	}
	if c.Collection.ProjectKey == "" {
		errs = append(errs, errors.New("project key is required"))
	}
	if c.Collection.IndexKey == "" {
		errs = append(errs, errors.New("collection key is required"))
	}
	if c.InputType == InputTypeS3 {
		if c.S3 == nil {
			errs = append(errs, errors.New("you must provide s3-credentials with input-type S3"))
		}
		if c.BatchSize != 1 {
			errs = append(errs, errors.New("batch size must be 1 when using S3 input"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// RunSummary reports the state of a run when it ends.
type RunSummary struct {
	// JobID names the run.
	JobID string

	// Total is the number of work items the run started with.
	Total int

	// Completed is the number of items confirmed uploaded.
	Completed int

	// Remaining is the number of items left in the pending set.
	Remaining int

	// FailedBatches counts batches that ended failed or errored.
	FailedBatches int

	// Interrupted is true if a termination signal stopped the run.
	Interrupted bool

	// CheckpointPath is where the pending set was written.
	CheckpointPath string
}

// String renders the success ratio, e.g. "3/3".
func (s RunSummary) String() string {
	return fmt.Sprintf("%d/%d", s.Completed, s.Total)
}
