package driving

import (
	"context"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// PrefixService discovers key-prefixes to use as S3-mode work items.
type PrefixService interface {
	// Discover lists the key-prefixes directly below coords.KeyPrefix.
	Discover(ctx context.Context, coords domain.S3Coordinates, delimiter string) ([]domain.WorkItem, error)
}
