package driven

import (
	"context"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// PrefixLister discovers key-prefixes in an S3-compatible bucket.
type PrefixLister interface {
	// ListPrefixes returns the common prefixes directly below the
	// coordinates' key prefix, relative to it, split on delimiter.
	ListPrefixes(ctx context.Context, coords domain.S3Coordinates, delimiter string) ([]string, error)
}
