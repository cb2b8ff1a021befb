package driven

import (
	"context"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

// ImageTagger embeds capture timestamp and GPS into an image's tag block.
// An absent or corrupt existing block is tolerated by starting from an
// empty one. GPS is written only when the record's location is valid;
// the (0,0) sentinel must never reach the file.
type ImageTagger interface {
	ApplyToImage(ctx context.Context, path string, rec *domain.MemoryRecord) error
}

// VideoTagger embeds metadata into a video container by remuxing (stream
// copy, no re-encode). A failed remux must leave the original untouched:
// the adapter works on a temporary copy and replaces atomically on success.
type VideoTagger interface {
	ApplyToVideo(ctx context.Context, path string, rec *domain.MemoryRecord) error
}

// Compositor renders an overlay onto a media file. Frame-level work is an
// external collaborator (ffmpeg); the core only hands over paths.
type Compositor interface {
	Composite(ctx context.Context, mediaPath, overlayPath, outputPath string) error
}
