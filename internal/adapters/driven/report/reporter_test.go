package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "upload_report_abc.log", FileName("abc"))
}

func TestReporter_ReportBatchFailure_Errored(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.ReportBatchFailure("job-1", domain.BatchResult{
		Batch:   domain.Batch{Index: 3, Items: []domain.WorkItem{"https://example.com/a.pdf"}},
		Handle:  "task-7",
		Outcome: domain.OutcomeErrored,
		Err:     errors.New("submit failed with HTTP error 400"),
	})

	line := buf.String()
	assert.Contains(t, line, "level=ERROR")
	assert.Contains(t, line, `msg="Error uploading batch"`)
	assert.Contains(t, line, "job_id=job-1")
	assert.Contains(t, line, "batch=3")
	assert.Contains(t, line, "task_id=task-7")
	assert.Contains(t, line, "outcome=errored")
	assert.Contains(t, line, "https://example.com/a.pdf")
	assert.Contains(t, line, `error="submit failed with HTTP error 400"`)
	assert.NotContains(t, line, "task_status")
	assert.Contains(t, line, "time=")
}

func TestReporter_ReportBatchFailure_RemoteFailure(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.ReportBatchFailure("job-1", domain.BatchResult{
		Batch:   domain.Batch{Items: []domain.WorkItem{"u"}},
		Handle:  "task-7",
		Outcome: domain.OutcomeFailed,
		Report:  &domain.TaskReport{Handle: "task-7", Status: domain.TaskStatusFailure},
	})

	assert.Contains(t, buf.String(), "task_status=FAILURE")
	assert.NotContains(t, buf.String(), "error=")
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName("job"))
	result := domain.BatchResult{Outcome: domain.OutcomeErrored, Err: errors.New("boom")}

	for i := 0; i < 2; i++ {
		r, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, path, r.Path())
		r.ReportBatchFailure("job", result)
		require.NoError(t, r.Close())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "Error uploading batch"))
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "report.log"))
	assert.Error(t, err)
}

func TestReporter_Close_Idempotent(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "report.log"))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	assert.NoError(t, New(&bytes.Buffer{}).Close())
}
