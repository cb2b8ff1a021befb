// Package file implements the JSON bundle store: the interchange artifact
// every phase loads independently. The wire format tolerates the field
// drift between the two tool generations (date_utc vs date_pst) and
// round-trips coordinates and timestamps losslessly.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

// Ensure BundleStore implements the interface.
var _ driven.BundleStore = (*BundleStore)(nil)

// BundleStore persists MetadataBundles as indented JSON files.
type BundleStore struct {
	policy domain.TimestampPolicy
}

// NewBundleStore creates a store writing timestamps under the given policy.
func NewBundleStore(policy domain.TimestampPolicy) *BundleStore {
	return &BundleStore{policy: policy}
}

// bundleJSON is the on-disk top-level shape.
type bundleJSON struct {
	ExtractedAt    string       `json:"extracted_at"`
	SourceJSON     string       `json:"source_json,omitempty"`
	SourceHTML     string       `json:"source_html,omitempty"`
	TotalMemories  int          `json:"total_memories"`
	Timezone       string       `json:"timezone,omitempty"`
	TimezoneOffset string       `json:"timezone_offset,omitempty"`
	Memories       []memoryJSON `json:"memories"`
}

// memoryJSON is the on-disk record shape. Exactly one of DateUTC/DatePST is
// written, depending on the timestamp policy; both are accepted on load and
// the UTC-labelled field wins when both exist.
type memoryJSON struct {
	DateUTC         string       `json:"date_utc,omitempty"`
	DatePST         string       `json:"date_pst,omitempty"`
	OriginalDateStr string       `json:"original_date_str,omitempty"`
	DateKey         string       `json:"date_key"`
	MediaType       string       `json:"media_type"`
	Location        locationJSON `json:"location"`
	URL             string       `json:"url"`
	IsGetRequest    bool         `json:"is_get_request"`
	Index           int          `json:"index"`
	Filename        string       `json:"filename"`
	DownloadedFile  string       `json:"downloaded_file,omitempty"`
}

type locationJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Valid     bool    `json:"valid"`
}

// Save writes the bundle atomically (temp file + rename).
func (s *BundleStore) Save(_ context.Context, bundle *domain.MetadataBundle, path string) error {
	out := bundleJSON{
		ExtractedAt:    bundle.ExtractedAt.Format(time.RFC3339),
		SourceJSON:     bundle.SourceJSON,
		SourceHTML:     bundle.SourceHTML,
		TotalMemories:  bundle.TotalCount,
		Timezone:       bundle.Timezone,
		TimezoneOffset: bundle.TimezoneOffset,
		Memories:       make([]memoryJSON, 0, len(bundle.Records)),
	}

	for i := range bundle.Records {
		rec := &bundle.Records[i]
		m := memoryJSON{
			OriginalDateStr: rec.OriginalDateString,
			DateKey:         rec.DateKey,
			MediaType:       string(rec.MediaType),
			Location: locationJSON{
				Latitude:  rec.Location.Latitude,
				Longitude: rec.Location.Longitude,
				Valid:     rec.Location.Valid,
			},
			URL:            rec.SourceURL,
			IsGetRequest:   rec.IsDirectRequest,
			Index:          rec.Ordinal,
			Filename:       rec.DerivedFilename,
			DownloadedFile: rec.DownloadedFile,
		}
		ts := s.policy.FormatRecord(rec.CapturedAt)
		if s.policy.FieldName() == "date_pst" {
			m.DatePST = ts
		} else {
			m.DateUTC = ts
		}
		out.Memories = append(out.Memories, m)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace bundle: %w", err)
	}
	return nil
}

// Load reads and decodes a bundle. domain.ErrNotFound when the file is
// missing, domain.ErrParse when it cannot be decoded.
func (s *BundleStore) Load(_ context.Context, path string) (*domain.MetadataBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: bundle %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var in bundleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	bundle := &domain.MetadataBundle{
		SourceJSON:     in.SourceJSON,
		SourceHTML:     in.SourceHTML,
		Timezone:       in.Timezone,
		TimezoneOffset: in.TimezoneOffset,
		TotalCount:     in.TotalMemories,
		Records:        make([]domain.MemoryRecord, 0, len(in.Memories)),
	}
	if in.ExtractedAt != "" {
		if t, err := time.Parse(time.RFC3339, in.ExtractedAt); err == nil {
			bundle.ExtractedAt = t
		}
	}

	for _, m := range in.Memories {
		ts := m.DateUTC
		if ts == "" {
			ts = m.DatePST
		}
		capturedAt, err := s.policy.ParseRecord(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrParse, m.Index, err)
		}

		bundle.Records = append(bundle.Records, domain.MemoryRecord{
			CapturedAt:         capturedAt,
			DateKey:            m.DateKey,
			MediaType:          domain.MediaType(m.MediaType),
			Location:           domain.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude, Valid: m.Location.Valid},
			SourceURL:          m.URL,
			IsDirectRequest:    m.IsGetRequest,
			OriginalDateString: m.OriginalDateStr,
			Ordinal:            m.Index,
			DerivedFilename:    m.Filename,
			DownloadedFile:     m.DownloadedFile,
		})
	}

	return bundle, nil
}
