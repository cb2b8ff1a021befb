package snaphtml

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser parses the tabular/markup export schema: repeating table rows
// where cell 0 holds the date, cell 1 the media type, cell 2 an optional
// location string, and an anchor embeds the download URL plus a direct-request
// flag inside an onclick attribute. The markup is hand-generated and not
// well-formed, so rows are scanned with tolerant patterns rather than a DOM.
type Normaliser struct {
	policy domain.TimestampPolicy
}

// New creates a tabular-schema normaliser under the given timestamp policy.
func New(policy domain.TimestampPolicy) *Normaliser {
	return &Normaliser{policy: policy}
}

// Pre-compiled patterns for row scanning.
var (
	tableRow = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	tableCell = regexp.MustCompile(`(?is)<td[^>]*>(.*?)</td>`)
	// The download link is a fixed two-argument call inside an
	// event-handler attribute; it is not structured data.
	downloadCall = regexp.MustCompile(`downloadMemories\('([^']+)',\s*this,\s*(true|false)\)`)
	locationPair = regexp.MustCompile(`Latitude,\s*Longitude:\s*([-\d.]+),\s*([-\d.]+)`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
)

// Normalise extracts MemoryRecords from the export markup.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) ([]domain.MemoryRecord, error) {
	content := string(raw)

	rows := tableRow.FindAllStringSubmatch(content, -1)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no table rows in input", domain.ErrMalformedExport)
	}

	var records []domain.MemoryRecord
	for _, row := range rows {
		rec, ok := n.parseRow(row[1])
		if ok {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, domain.ErrEmptyExport
	}
	return records, nil
}

// parseRow extracts one record from the inner markup of a table row.
// Rows missing a parseable date or a download URL are skipped, not fatal.
func (n *Normaliser) parseRow(row string) (domain.MemoryRecord, bool) {
	var rec domain.MemoryRecord

	call := downloadCall.FindStringSubmatch(row)
	if call == nil {
		return rec, false // header row or row without a download action
	}
	rec.SourceURL = html.UnescapeString(call[1])
	rec.IsDirectRequest = call[2] == "true"

	cells := tableCell.FindAllStringSubmatch(row, -1)
	if len(cells) == 0 {
		return rec, false
	}

	// Cell 0: date (YYYY-MM-DD HH:MM:SS <zone-label>)
	dateText := cellText(cells[0][1])
	capturedAt, err := n.policy.ParseExportDate(dateText)
	if err != nil {
		logger.Warn("skipping row: %v", err)
		return rec, false
	}
	rec.CapturedAt = capturedAt
	rec.DateKey = domain.FormatDateKey(capturedAt)
	rec.OriginalDateString = dateText

	// Cell 1: media type label
	if len(cells) > 1 {
		rec.MediaType = domain.ParseMediaType(cellText(cells[1][1]))
	} else {
		rec.MediaType = domain.ParseMediaType("")
	}

	// Cell 2: optional location
	if len(cells) > 2 {
		rec.Location = parseLocation(cellText(cells[2][1]))
	}

	return rec, true
}

// cellText strips nested tags and entities from a cell body.
func cellText(s string) string {
	s = anyTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// parseLocation reads the "Latitude, Longitude: <lat>, <lon>" form.
// Anything unparseable yields the invalid zero location.
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
