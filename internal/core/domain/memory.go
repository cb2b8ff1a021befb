package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MediaType classifies a memory as a still image or a video.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// ParseMediaType lower-cases the export's free-text media type field.
// Unknown labels are preserved (lower-cased) rather than rejected so a
// schema drift in the export does not drop records.
func ParseMediaType(s string) MediaType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return MediaType(s)
}

// Location is an optional GPS coordinate pair.
// The export uses the exact pair (0.0, 0.0) as a "no GPS" sentinel, not a
// real equatorial position, so Valid is false for that pair.
type Location struct {
	Latitude  float64
	Longitude float64
	Valid     bool
}

// NewLocation builds a Location from raw export coordinates.
// Coordinates are rounded to 6 decimal places (~0.11m) to normalise
// representation noise; validity is decided on the rounded values.
func NewLocation(lat, lon float64) Location {
	lat = round6(lat)
	lon = round6(lon)
	return Location{
		Latitude:  lat,
		Longitude: lon,
		Valid:     !(lat == 0.0 && lon == 0.0),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// MemoryRecord is the canonical representation of one media item from an
// export. It is created once during normalisation; DownloadedFile is set
// once after a successful fetch; records are never deleted.
type MemoryRecord struct {
	// CapturedAt is the wall-clock capture timestamp. It is naive: the
	// digits are taken literally from the export and carry no zone.
	// See TimestampPolicy for the zone-label ambiguity this encodes.
	CapturedAt time.Time

	// DateKey is CapturedAt rendered as YYYY-MM-DD_HH-MM-SS. It is a
	// secondary lookup key; same-second captures are disambiguated by
	// Ordinal, never by DateKey alone.
	DateKey string

	// MediaType is the lower-cased media type label.
	MediaType MediaType

	// Location is the optional GPS fix.
	Location Location

	// SourceURL is the signed download URL.
	SourceURL string

	// IsDirectRequest records whether SourceURL needs the routing header
	// or is already pre-authenticated.
	IsDirectRequest bool

	// OriginalDateString keeps the raw date text for audit.
	OriginalDateString string

	// Ordinal is the 1-based position in export order. Unique and dense
	// within one extraction run; last-resort identity.
	Ordinal int

	// DerivedFilename is the primary identity key propagated through
	// every later phase: {dateKey}_{mediaType}_{ordinal:04d}[_gps].
	DerivedFilename string

	// DownloadedFile is the on-disk name after a successful fetch. It may
	// differ from DerivedFilename when an extension was appended.
	DownloadedFile string
}

// DateKeyFormat is the layout of DateKey values.
const DateKeyFormat = "2006-01-02_15-04-05"

// FormatDateKey renders a timestamp as a DateKey.
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// DeriveFilename computes the deterministic identity string for a record.
// GPS presence is encoded as a suffix so an operator can eyeball which
// files carry a location.
func DeriveFilename(dateKey string, mediaType MediaType, ordinal int, hasGPS bool) string {
	name := fmt.Sprintf("%s_%s_%04d", dateKey, mediaType, ordinal)
	if hasGPS {
		name += "_gps"
	}
	return name
}

// MetadataBundle is the serialized form of a full export and the sole
// hand-off artifact between phases. Every phase must be independently
// invokable against only this artifact.
type MetadataBundle struct {
	ExtractedAt time.Time

	// SourceHTML / SourceJSON record provenance; exactly one is set.
	SourceHTML string
	SourceJSON string

	// Timezone descriptors are set by the local timestamp policy
	// (e.g. "PST", "UTC-8") and empty under the utc policy.
	Timezone       string
	TimezoneOffset string

	TotalCount int
	Records    []MemoryRecord
}
