package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
)

// Ensure Reporter implements the interface.
var _ driven.ErrorReporter = (*Reporter)(nil)

// FileName returns the report file name for a job.
func FileName(jobID string) string {
	return fmt.Sprintf("upload_report_%s.log", jobID)
}

// Reporter logs one structured record per failed batch.
type Reporter struct {
	mu     sync.Mutex
	logger *slog.Logger
	closer io.Closer
	path   string
}

// Open appends to the report file at path, creating it if needed.
func Open(path string) (*Reporter, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	r := New(f)
	r.closer = f
	r.path = f.Name()
	return r, nil
}

// New creates a reporter writing text records to w.
func New(w io.Writer) *Reporter {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Reporter{logger: slog.New(handler)}
}

// Path returns the report file path, or empty for a plain writer.
func (r *Reporter) Path() string {
	return r.path
}

// ReportBatchFailure records a failed or errored batch.
func (r *Reporter) ReportBatchFailure(jobID string, result domain.BatchResult) {
	attrs := []any{
		slog.String("job_id", jobID),
		slog.Int("batch", result.Batch.Index),
		slog.String("task_id", result.Handle.String()),
		slog.String("outcome", string(result.Outcome)),
		slog.Any("items", result.Batch.Strings()),
	}
	if result.Report != nil {
		attrs = append(attrs, slog.String("task_status", result.Report.Status.String()))
	}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", result.Err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Error("Error uploading batch", attrs...)
}

// Close closes the underlying file, if any.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
