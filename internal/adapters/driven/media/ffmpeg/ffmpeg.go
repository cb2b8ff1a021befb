// Package ffmpeg shells out to ffmpeg for container-level metadata writes
// and overlay compositing. Video metadata goes in via a stream-copy remux
// onto a temp file that replaces the original only on success, so a failed
// run never corrupts the source.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// creationTimeFormat is the naive ISO form quicktime/mp4 muxers accept.
const creationTimeFormat = "2006-01-02T15:04:05"

// Ensure the adapters implement their interfaces.
var (
	_ driven.VideoTagger = (*Tagger)(nil)
	_ driven.Compositor  = (*Compositor)(nil)
)

// Tagger remuxes videos to embed capture metadata.
type Tagger struct {
	binary string
}

// NewTagger creates a tagger using the ffmpeg found on PATH.
func NewTagger() *Tagger {
	return &Tagger{binary: "ffmpeg"}
}

// ApplyToVideo embeds creation_time and, for valid locations, the ISO 6709
// location tags. The remux copies streams without re-encoding.
func (t *Tagger) ApplyToVideo(ctx context.Context, path string, rec *domain.MemoryRecord) error {
	args := []string{"-i", path, "-c", "copy"}
	args = append(args, "-metadata", "creation_time="+rec.CapturedAt.Format(creationTimeFormat))

	if rec.Location.Valid {
		coords := fmt.Sprintf("%v,%v", rec.Location.Latitude, rec.Location.Longitude)
		args = append(args,
			"-metadata", "location="+coords,
			"-metadata", "location-eng="+coords,
		)
	} else {
		logger.Debug("Skipping location tags for %s: no valid coordinates", path)
	}

	tempPath := filepath.Join(filepath.Dir(path), "temp_"+filepath.Base(path))
	args = append(args, "-y", tempPath)

	if err := t.run(ctx, args); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("remuxing %s: %w", path, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (t *Tagger) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(string(out), 200))
	}
	return nil
}

// Compositor burns a caption/sticker overlay onto a base media file.
type Compositor struct {
	binary string
}

// NewCompositor creates a compositor using the ffmpeg found on PATH.
func NewCompositor() *Compositor {
	return &Compositor{binary: "ffmpeg"}
}

// Composite renders overlayPath on top of mediaPath into outputPath. The
// overlay is scaled to the base frame. For videos the original audio is
// carried through when present.
func (c *Compositor) Composite(ctx context.Context, mediaPath, overlayPath, outputPath string) error {
	args := []string{
		"-i", mediaPath,
		"-i", overlayPath,
		"-filter_complex", "[1:v]scale2ref=w=iw:h=ih[ovl][base];[base][ovl]overlay=0:0",
	}

	if strings.EqualFold(filepath.Ext(outputPath), ".mp4") {
		args = append(args, "-map", "0:a?", "-c:a", "copy")
	}
	args = append(args, "-y", outputPath)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("compositing %s: %w: %s", mediaPath, err, tail(string(out), 200))
	}
	return nil
}

// tail returns at most n trailing bytes of s, trimmed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
