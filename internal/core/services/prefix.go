package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
)

// Ensure PrefixService implements the interface.
var _ driving.PrefixService = (*PrefixService)(nil)

// DefaultDelimiter separates key-prefix levels.
const DefaultDelimiter = "/"

// PrefixService turns bucket key-prefixes into S3-mode work items.
type PrefixService struct {
	lister driven.PrefixLister
}

// NewPrefixService creates a new prefix service.
func NewPrefixService(lister driven.PrefixLister) *PrefixService {
	return &PrefixService{lister: lister}
}

// Discover lists the key-prefixes directly below coords.KeyPrefix.
// An empty delimiter uses DefaultDelimiter.
func (s *PrefixService) Discover(
	ctx context.Context,
	coords domain.S3Coordinates,
	delimiter string,
) ([]domain.WorkItem, error) {
	if s.lister == nil {
		return nil, errors.New("prefix lister not configured")
	}
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	prefixes, err := s.lister.ListPrefixes(ctx, coords, delimiter)
	if err != nil {
		return nil, fmt.Errorf("list prefixes in %s: %w", coords.Bucket, err)
	}

	items := make([]domain.WorkItem, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		items = append(items, domain.WorkItem(p))
	}
	return items, nil
}
