package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
)

// Ensure uploadPrinter implements the interface.
var _ driving.UploadObserver = (*uploadPrinter)(nil)

// uploadPrinter writes run progress to the command's output.
// Workers and the control loop call it concurrently.
type uploadPrinter struct {
	mu    sync.Mutex
	cmd   *cobra.Command
	cfg   domain.RunConfig
	saved bool
}

func newUploadPrinter(cmd *cobra.Command, cfg domain.RunConfig) *uploadPrinter {
	return &uploadPrinter{cmd: cmd, cfg: cfg}
}

func (p *uploadPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cmd.Printf(format, args...)
}

func (p *uploadPrinter) println(msg string) {
	p.printf("%s\n", msg)
}

func (p *uploadPrinter) stateSaved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

func (p *uploadPrinter) OnStart(jobID string, total, batches int, checkpointPath string) {
	p.printf("Job %s\n", jobID)
	p.printf("To resume this job later, provide --resume-point %s to the command line.\n", checkpointPath)
	p.printf("Processing %d elements in %d batches.\n", total, batches)
}

func (p *uploadPrinter) OnSubmitted(batch domain.Batch, handle domain.TaskHandle) {
	if p.cfg.InputType == domain.InputTypeS3 && p.cfg.S3 != nil && batch.Len() == 1 {
		p.printf("Submitting key_prefix=%s with task_id %s...\n", p.cfg.S3.KeyPrefix+string(batch.Items[0]), handle)
		return
	}
	p.printf("Submitting url batch %d with task_id %s\n", batch.Index, handle)
}

func (p *uploadPrinter) OnPollRetry(handle domain.TaskHandle, err error, delay time.Duration) {
	p.printf("Requesting status of task_id=%s failed: %v (retrying in %s)\n", handle, err, delay)
}

func (p *uploadPrinter) OnBatchDone(result domain.BatchResult, remaining, total int) {
	if result.Report != nil {
		p.printf("Report for %s with task_id %s: %s\n", batchLabel(p.cfg, result.Batch), result.Handle, result.Report.Status)
	}
	p.printf("Batch completed with result: %s\n", describeResult(result))
	p.printf("%d of %d left to complete.\n", remaining, total)
}

func (p *uploadPrinter) OnTokenRefreshFailed(error) {
	p.println("Error while refreshing token")
}

func (p *uploadPrinter) OnInterrupted(summary domain.RunSummary) {
	p.mu.Lock()
	p.saved = true
	p.mu.Unlock()

	p.printf("%d of %d left to complete.\n", summary.Remaining, summary.Total)
	p.println("Current state saved. Exiting...")
}

func (p *uploadPrinter) OnFinish(summary domain.RunSummary) {
	p.println("Upload process completed.")
	p.printf("Successful: %s\n", summary)
	if summary.FailedBatches > 0 {
		p.printf("Failed batches: %d. Resume with --resume-point %s\n", summary.FailedBatches, summary.CheckpointPath)
	}
}

func batchLabel(cfg domain.RunConfig, batch domain.Batch) string {
	if cfg.InputType == domain.InputTypeS3 && batch.Len() == 1 {
		return string(batch.Items[0])
	}
	return fmt.Sprintf("url_batch %d", batch.Index)
}

func describeResult(result domain.BatchResult) string {
	if result.Err != nil {
		return fmt.Sprintf("%s (%v)", result.Outcome, result.Err)
	}
	return string(result.Outcome)
}
