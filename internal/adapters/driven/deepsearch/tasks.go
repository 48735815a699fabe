package deepsearch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// TaskStatus queries the state of a task.
func (c *Client) TaskStatus(ctx context.Context, projectKey string, handle domain.TaskHandle) (*domain.TaskReport, error) {
	path := projectPath(projectKey, "celery_tasks", url.PathEscape(handle.String()))

	var report domain.TaskReport
	if err := c.do(ctx, "task status", http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	if report.Handle == "" {
		report.Handle = handle
	}
	return &report, nil
}
