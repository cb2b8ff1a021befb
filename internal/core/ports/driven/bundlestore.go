package driven

import (
	"context"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

// BundleStore persists the MetadataBundle interchange artifact. Round-trips
// must be lossless: coordinate precision (6 decimals) and timestamps
// (second precision) survive Save followed by Load.
//
// Load returns domain.ErrNotFound when the artifact is missing and
// domain.ErrParse when it cannot be decoded.
type BundleStore interface {
	Save(ctx context.Context, bundle *domain.MetadataBundle, path string) error
	Load(ctx context.Context, path string) (*domain.MetadataBundle, error)
}
