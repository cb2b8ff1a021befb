// Package exiftool writes capture timestamps and GPS coordinates into
// image tag blocks via an external exiftool process. Existing tags are
// inspected first so an already-correct file is left untouched.
package exiftool

import (
	"context"
	"fmt"
	"os"
	"time"

	barasher "github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// exifTimeFormat is the colon-separated timestamp layout EXIF mandates.
const exifTimeFormat = "2006:01:02 15:04:05"

// Ensure Tagger implements the interface.
var _ driven.ImageTagger = (*Tagger)(nil)

// Tagger applies metadata to images through a shared exiftool instance.
type Tagger struct {
	tool *barasher.Exiftool
}

// NewTagger starts the backing exiftool process. Callers must Close it.
func NewTagger() (*Tagger, error) {
	tool, err := barasher.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("initializing exiftool: %w", err)
	}
	return &Tagger{tool: tool}, nil
}

// Close shuts down the backing exiftool process.
func (t *Tagger) Close() error {
	return t.tool.Close()
}

// ApplyToImage writes DateTimeOriginal and, for valid locations, the GPS
// coordinate tags. A corrupt or missing existing tag block starts from
// empty rather than failing the item.
func (t *Tagger) ApplyToImage(ctx context.Context, path string, rec *domain.MemoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := rec.CapturedAt.Format(exifTimeFormat)
	if existing, ok := existingCaptureTime(path); ok && existing.Equal(rec.CapturedAt) {
		logger.Debug("Tags already current for %s", path)
		return nil
	}

	metadatas := t.tool.ExtractMetadata(path)
	if len(metadatas) == 0 {
		metadatas = []barasher.FileMetadata{barasher.EmptyFileMetadata()}
		metadatas[0].File = path
	}
	for idx, m := range metadatas {
		if m.Err != nil {
			logger.Debug("Resetting unreadable tag block for %s: %v", path, m.Err)
			fresh := barasher.EmptyFileMetadata()
			fresh.File = path
			metadatas[idx] = fresh
		}
	}

	metadatas[0].SetString("DateTimeOriginal", target)
	metadatas[0].SetString("CreateDate", target)

	if rec.Location.Valid {
		metadatas[0].SetString("GPSLatitude", formatDMS(rec.Location.Latitude))
		metadatas[0].SetString("GPSLatitudeRef", latitudeRef(rec.Location.Latitude))
		metadatas[0].SetString("GPSLongitude", formatDMS(rec.Location.Longitude))
		metadatas[0].SetString("GPSLongitudeRef", longitudeRef(rec.Location.Longitude))
	}

	t.tool.WriteMetadata(metadatas)
	for _, m := range metadatas {
		if m.Err != nil {
			return fmt.Errorf("writing tags for %s: %w", path, m.Err)
		}
	}
	return nil
}

// existingCaptureTime reads DateTimeOriginal from the file's current tag
// block. Any decode failure means "unknown", never an error.
func existingCaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse(exifTimeFormat, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
