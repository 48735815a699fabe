package driven

import "github.com/custodia-labs/dsbulk/internal/core/domain"

// ErrorReporter records failed batches for later inspection.
type ErrorReporter interface {
	// ReportBatchFailure records a batch that ended failed or errored.
	ReportBatchFailure(jobID string, result domain.BatchResult)

	// Close flushes and releases the underlying resource.
	Close() error
}
