package snapjson

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// savedMediaKey wraps the item array in one generation of the export.
const savedMediaKey = "Saved Media"

// Normaliser parses the structured export schema: a JSON array of flat
// objects (or an object wrapping that array under "Saved Media").
type Normaliser struct {
	policy domain.TimestampPolicy
}

// New creates a structured-schema normaliser under the given timestamp policy.
func New(policy domain.TimestampPolicy) *Normaliser {
	return &Normaliser{policy: policy}
}

// exportItem mirrors the export's field names. Two URL fields exist:
// "Media Download Url" is directly fetchable, "Download Link" goes through
// the export proxy.
type exportItem struct {
	Date             string `json:"Date"`
	MediaType        string `json:"Media Type"`
	Location         string `json:"Location"`
	MediaDownloadURL string `json:"Media Download Url"`
	DownloadLink     string `json:"Download Link"`
}

var locationPair = regexp.MustCompile(`Latitude,\s*Longitude:\s*([-\d.]+),\s*([-\d.]+)`)

// Normalise extracts MemoryRecords from the structured export.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) ([]domain.MemoryRecord, error) {
	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyExport
	}

	var records []domain.MemoryRecord
	for _, item := range items {
		rec, ok := n.parseItem(item)
		if ok {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptyExport
	}
	return records, nil
}

// decodeItems accepts either a bare array or the wrapped object form.
func decodeItems(raw []byte) ([]exportItem, error) {
	var items []exportItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExport, err)
	}
	inner, ok := wrapped[savedMediaKey]
	if !ok {
		return nil, fmt.Errorf("%w: object input lacks %q key", domain.ErrMalformedExport, savedMediaKey)
	}
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExport, err)
	}
	return items, nil
}

// parseItem converts one export object. Items without a parseable date or a
// resolvable URL are skipped with a warning.
func (n *Normaliser) parseItem(item exportItem) (domain.MemoryRecord, bool) {
	var rec domain.MemoryRecord

	if item.Date == "" {
		return rec, false
	}
	capturedAt, err := n.policy.ParseExportDate(item.Date)
	if err != nil {
		logger.Warn("skipping item: %v", err)
		return rec, false
	}
	rec.CapturedAt = capturedAt
	rec.DateKey = domain.FormatDateKey(capturedAt)
	rec.OriginalDateString = item.Date

	rec.MediaType = domain.ParseMediaType(item.MediaType)
	rec.Location = parseLocation(item.Location)

	// Prefer the direct URL over the proxied download link. Which field
	// won determines whether the routing header is needed.
	switch {
	case item.MediaDownloadURL != "":
		rec.SourceURL = item.MediaDownloadURL
		rec.IsDirectRequest = true
	case item.DownloadLink != "":
		rec.SourceURL = item.DownloadLink
		rec.IsDirectRequest = false
	default:
		return rec, false
	}

	return rec, true
}

func parseLocation(s string) domain.Location {
	m := locationPair.FindStringSubmatch(s)
	if m == nil {
		return domain.Location{}
	}
	lat, errLat := strconv.ParseFloat(m[1], 64)
	lon, errLon := strconv.ParseFloat(m[2], 64)
	if errLat != nil || errLon != nil {
		return domain.Location{}
	}
	return domain.NewLocation(lat, lon)
}
