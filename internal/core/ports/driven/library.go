package driven

import (
	"context"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

// LibraryClient is the remote photo-library collaborator. Wire-protocol
// details stay in the adapter; the core only sees normalized assets and
// structured updates.
type LibraryClient interface {
	// ListAssets fetches the full remote asset list. No cursor is
	// persisted; reconciliation enumerates fresh every run.
	ListAssets(ctx context.Context) ([]domain.RemoteAsset, error)

	// FindAssetByName looks an asset up by base name. The remote query
	// surface is undocumented, so the adapter probes a fixed list of
	// fallback strategies; domain.ErrNotFound when none match.
	FindAssetByName(ctx context.Context, name string) (*domain.RemoteAsset, error)

	// UpdateAsset submits a metadata repair for one asset. All-or-nothing
	// per asset: a partial update across fields is never applied.
	// domain.ErrUpdateRejected wraps non-success statuses.
	UpdateAsset(ctx context.Context, id string, update domain.AssetUpdate) error

	// UploadAsset uploads one processed file. domain.ErrDuplicate when the
	// library already holds it.
	UploadAsset(ctx context.Context, path string, fileCreatedAt string) error
}
