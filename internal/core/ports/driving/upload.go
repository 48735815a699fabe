package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// UploadOrchestrator submits work items to the upload service and tracks
// them to completion.
type UploadOrchestrator interface {
	// Run uploads items according to cfg and blocks until every batch has
	// resolved or ctx is cancelled.
	//
	// On cancellation the pending set is saved and the returned error wraps
	// domain.ErrInterrupted; the summary is still returned.
	Run(ctx context.Context, cfg domain.RunConfig, items []domain.WorkItem, obs UploadObserver) (*domain.RunSummary, error)
}

// UploadObserver receives progress events from a run.
// All methods are called from the orchestrator's control goroutine except
// OnSubmitted and OnPollRetry, which are called from workers.
// Implementations must be safe for concurrent use.
type UploadObserver interface {
	// OnStart is called once the checkpoint has been written.
	OnStart(jobID string, total, batches int, checkpointPath string)

	// OnSubmitted is called after a batch was accepted by the service.
	OnSubmitted(batch domain.Batch, handle domain.TaskHandle)

	// OnPollRetry is called before a transient poll error is retried.
	OnPollRetry(handle domain.TaskHandle, err error, delay time.Duration)

	// OnBatchDone is called after each batch resolves and the checkpoint
	// has been rewritten.
	OnBatchDone(result domain.BatchResult, remaining, total int)

	// OnTokenRefreshFailed is called when the best-effort token refresh fails.
	OnTokenRefreshFailed(err error)

	// OnInterrupted is called after the pending set was saved on cancellation.
	OnInterrupted(summary domain.RunSummary)

	// OnFinish is called when every batch has resolved.
	OnFinish(summary domain.RunSummary)
}
