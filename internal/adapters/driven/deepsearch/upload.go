package deepsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

type submitRequest struct {
	FileURL  []string  `json:"file_url,omitempty"`
	S3Source *s3Source `json:"s3_source,omitempty"`
}

type s3Source struct {
	Coordinates domain.S3Coordinates `json:"coordinates"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

// Submit starts a conversion-and-upload task for src into the collection.
func (c *Client) Submit(
	ctx context.Context,
	coll domain.CollectionCoordinates,
	src domain.UploadSource,
) (domain.TaskHandle, error) {
	var body submitRequest
	switch {
	case src.S3 != nil && len(src.FileURLs) > 0:
		return "", fmt.Errorf("%w: upload source sets both file URLs and S3", domain.ErrInvalidInput)
	case src.S3 != nil:
		body.S3Source = &s3Source{Coordinates: *src.S3}
	case len(src.FileURLs) > 0:
		body.FileURL = src.FileURLs
	default:
		return "", fmt.Errorf("%w: upload source is empty", domain.ErrInvalidInput)
	}

	path := projectPath(coll.ProjectKey,
		"data_indices", url.PathEscape(coll.IndexKey), "actions", "ccs_convert_upload")

	var resp submitResponse
	if err := c.do(ctx, "submit", http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", errors.New("submit: response has no task_id")
	}
	return domain.TaskHandle(resp.TaskID), nil
}
