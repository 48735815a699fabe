package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
	"github.com/custodia-labs/dsbulk/internal/logger"
)

// Ensure UploadOrchestrator implements the interface.
var _ driving.UploadOrchestrator = (*UploadOrchestrator)(nil)

// UploadOrchestrator submits batches with bounded concurrency, polls each
// task to a terminal state and keeps the checkpoint in step with the
// pending set.
//
// Workers only talk to the upload service. The pending set, the checkpoint,
// the error reporter and the run store are touched exclusively by the
// control goroutine inside Run.
type UploadOrchestrator struct {
	service    driven.UploadService
	checkpoint driven.CheckpointStore
	reporter   driven.ErrorReporter
	runs       driven.RunStore

	retry RetryPolicy
	now   func() time.Time
}

// NewUploadOrchestrator creates a new upload orchestrator.
// reporter and runs are optional; if nil, failures are only logged and no
// history is kept.
func NewUploadOrchestrator(
	service driven.UploadService,
	checkpoint driven.CheckpointStore,
	reporter driven.ErrorReporter,
	runs driven.RunStore,
) *UploadOrchestrator {
	return &UploadOrchestrator{
		service:    service,
		checkpoint: checkpoint,
		reporter:   reporter,
		runs:       runs,
		now:        time.Now,
	}
}

// SetRetryPolicy overrides the poll retry policy. By default transient
// errors are retried every cfg.PollInterval up to cfg.MaxPollRetries times.
func (o *UploadOrchestrator) SetRetryPolicy(policy RetryPolicy) {
	o.retry = policy
}

// Run uploads items and blocks until every batch has resolved or ctx is
// cancelled.
//
//nolint:gocognit // Orchestration loop coordinating workers and checkpoints
func (o *UploadOrchestrator) Run(
	ctx context.Context,
	cfg domain.RunConfig,
	items []domain.WorkItem,
	obs driving.UploadObserver,
) (*domain.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.service == nil {
		return nil, errors.New("upload service not configured")
	}
	if o.checkpoint == nil {
		return nil, errors.New("checkpoint store not configured")
	}
	if obs == nil {
		obs = nopObserver{}
	}

	batches, err := domain.Batches(items, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	pending := domain.NewPendingSet(items)
	summary := &domain.RunSummary{
		JobID:          cfg.JobID,
		Total:          len(items),
		Remaining:      pending.Len(),
		CheckpointPath: o.checkpoint.Path(),
	}

	// The checkpoint must exist before the first submission.
	if err := o.checkpoint.Save(pending.Items()); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	startedAt := o.now()
	o.saveRun(ctx, cfg, summary, domain.RunStatusRunning, startedAt)
	obs.OnStart(cfg.JobID, len(items), len(batches), summary.CheckpointPath)
	logger.Info("Processing %d elements in %d batches", len(items), len(batches))

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to len(batches) so workers never block on send once the
	// control loop has stopped reading.
	results := make(chan domain.BatchResult, len(batches))
	queue := make(chan domain.Batch)
	policy := o.retryPolicy(cfg)

	var wg sync.WaitGroup
	for i := 0; i < min(cfg.Concurrency, len(batches)); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for batch := range queue {
				logger.Debug("worker %d: processing batch %d", workerID, batch.Index)
				results <- o.processBatch(workCtx, cfg, batch, policy, obs)
			}
		}(i)
	}

	go func() {
		defer close(queue)
		for _, batch := range batches {
			select {
			case queue <- batch:
			case <-workCtx.Done():
				return
			}
		}
	}()

	for resolved := 0; resolved < len(batches); {
		if ctx.Err() != nil {
			return o.interrupt(ctx, cfg, pending, summary, startedAt, obs)
		}

		select {
		case <-ctx.Done():
			return o.interrupt(ctx, cfg, pending, summary, startedAt, obs)

		case result := <-results:
			resolved++
			o.handleResult(ctx, cfg, pending, summary, result, obs)
		}
	}

	cancel()
	wg.Wait()

	o.saveRun(ctx, cfg, summary, domain.RunStatusCompleted, startedAt)
	obs.OnFinish(*summary)
	return summary, nil
}

// processBatch submits one batch and tracks it to a terminal state.
// Every failure is captured in the returned result.
func (o *UploadOrchestrator) processBatch(
	ctx context.Context,
	cfg domain.RunConfig,
	batch domain.Batch,
	policy RetryPolicy,
	obs driving.UploadObserver,
) domain.BatchResult {
	result := domain.BatchResult{Batch: batch, Outcome: domain.OutcomeErrored}

	src, err := domain.UploadSourceFor(cfg.InputType, batch, cfg.S3)
	if err != nil {
		result.Err = err
		return result
	}

	handle, err := o.service.Submit(ctx, cfg.Collection, src)
	if err != nil {
		result.Err = fmt.Errorf("submit: %w", err)
		return result
	}
	result.Handle = handle
	obs.OnSubmitted(batch, handle)

	report, err := o.waitForTask(ctx, cfg, handle, policy, obs)
	if err != nil {
		result.Err = err
		return result
	}

	result.Report = report
	if report.Status == domain.TaskStatusSuccess {
		result.Outcome = domain.OutcomeSucceeded
	} else {
		result.Outcome = domain.OutcomeFailed
	}
	return result
}

// waitForTask polls the task every cfg.PollInterval until the service
// reports a terminal status. Poll errors are handed to policy; an error it
// declines to retry ends tracking.
func (o *UploadOrchestrator) waitForTask(
	ctx context.Context,
	cfg domain.RunConfig,
	handle domain.TaskHandle,
	policy RetryPolicy,
	obs driving.UploadObserver,
) (*domain.TaskReport, error) {
	failures := 0
	for {
		report, err := o.service.TaskStatus(ctx, cfg.Collection.ProjectKey, handle)

		var delay time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			d, retry := policy(failures, err)
			if !retry {
				return nil, fmt.Errorf("task status: %w", err)
			}
			logger.Warn("Requesting status of task_id=%s failed: %v", handle, err)
			obs.OnPollRetry(handle, err, d)
			delay = d

		case report == nil:
			return nil, fmt.Errorf("task status: empty report for task %s", handle)

		case report.Status.IsTerminal():
			return report, nil

		default:
			failures = 0
			delay = cfg.PollInterval
		}

		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// handleResult applies one resolved batch to the pending set and persists it.
func (o *UploadOrchestrator) handleResult(
	ctx context.Context,
	cfg domain.RunConfig,
	pending *domain.PendingSet,
	summary *domain.RunSummary,
	result domain.BatchResult,
	obs driving.UploadObserver,
) {
	if result.Succeeded() {
		summary.Completed += pending.Remove(result.Batch.Items...)
	} else {
		summary.FailedBatches++
		logger.Error("Error uploading batch %d with task_id %q: %s",
			result.Batch.Index, result.Handle, describeFailure(result))
		if o.reporter != nil {
			o.reporter.ReportBatchFailure(cfg.JobID, result)
		}
	}
	summary.Remaining = pending.Len()

	if err := o.checkpoint.Save(pending.Items()); err != nil {
		logger.Error("Failed to save checkpoint %s: %v", o.checkpoint.Path(), err)
	}

	if o.runs != nil {
		rec := domain.NewBatchRecord(cfg.JobID, result, o.now())
		if err := o.runs.SaveBatch(ctx, rec); err != nil {
			logger.Warn("Failed to record batch %d: %v", result.Batch.Index, err)
		}
	}

	obs.OnBatchDone(result, summary.Remaining, summary.Total)

	if err := o.service.RefreshToken(ctx); err != nil {
		logger.Warn("Error while refreshing token: %v", err)
		obs.OnTokenRefreshFailed(err)
	}
}

// interrupt saves the pending set after cancellation and returns without
// waiting for in-flight batches.
func (o *UploadOrchestrator) interrupt(
	ctx context.Context,
	cfg domain.RunConfig,
	pending *domain.PendingSet,
	summary *domain.RunSummary,
	startedAt time.Time,
	obs driving.UploadObserver,
) (*domain.RunSummary, error) {
	summary.Interrupted = true
	summary.Remaining = pending.Len()

	if err := o.checkpoint.Save(pending.Items()); err != nil {
		return summary, fmt.Errorf("%w: save checkpoint: %w", domain.ErrInterrupted, err)
	}

	o.saveRun(context.WithoutCancel(ctx), cfg, summary, domain.RunStatusInterrupted, startedAt)
	obs.OnInterrupted(*summary)
	return summary, domain.ErrInterrupted
}

// saveRun records the run state. History is best-effort.
func (o *UploadOrchestrator) saveRun(
	ctx context.Context,
	cfg domain.RunConfig,
	summary *domain.RunSummary,
	status domain.RunStatus,
	startedAt time.Time,
) {
	if o.runs == nil {
		return
	}

	rec := domain.RunRecord{
		JobID:          cfg.JobID,
		InputType:      cfg.InputType,
		ProjectKey:     cfg.Collection.ProjectKey,
		IndexKey:       cfg.Collection.IndexKey,
		Total:          summary.Total,
		Remaining:      summary.Remaining,
		FailedBatches:  summary.FailedBatches,
		Status:         status,
		CheckpointPath: summary.CheckpointPath,
		StartedAt:      startedAt,
	}
	if status != domain.RunStatusRunning {
		rec.FinishedAt = o.now()
	}

	if err := o.runs.SaveRun(ctx, rec); err != nil {
		logger.Warn("Failed to record run %s: %v", cfg.JobID, err)
	}
}

func (o *UploadOrchestrator) retryPolicy(cfg domain.RunConfig) RetryPolicy {
	if o.retry != nil {
		return o.retry
	}
	return RetryTransient(cfg.PollInterval, cfg.MaxPollRetries)
}

func describeFailure(result domain.BatchResult) string {
	if result.Err != nil {
		return result.Err.Error()
	}
	if result.Report != nil {
		return fmt.Sprintf("task status %s", result.Report.Status)
	}
	return string(result.Outcome)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nopObserver discards all events.
type nopObserver struct{}

func (nopObserver) OnStart(string, int, int, string) {}
func (nopObserver) OnSubmitted(domain.Batch, domain.TaskHandle) {}
func (nopObserver) OnPollRetry(domain.TaskHandle, error, time.Duration) {}
func (nopObserver) OnBatchDone(domain.BatchResult, int, int) {}
func (nopObserver) OnTokenRefreshFailed(error) {}
func (nopObserver) OnInterrupted(domain.RunSummary) {}
func (nopObserver) OnFinish(domain.RunSummary) {}
