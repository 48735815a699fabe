package driven

import (
	"context"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// UploadService is the remote document-conversion service.
//
// Implementations return *domain.RemoteError for non-success responses so
// callers can classify failures with domain.IsTransient.
type UploadService interface {
	// Submit starts an upload task for one batch and returns its handle.
	Submit(ctx context.Context, coll domain.CollectionCoordinates, src domain.UploadSource) (domain.TaskHandle, error)

	// TaskStatus queries the current state of a submitted task.
	TaskStatus(ctx context.Context, projectKey string, handle domain.TaskHandle) (*domain.TaskReport, error)

	// RefreshToken obtains a fresh access token.
	RefreshToken(ctx context.Context) error
}
