package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimestampPolicy decides how the export's "UTC"-labelled timestamps are
// interpreted and serialized. The export platform labels every timestamp
// "UTC" even though one generation of exports actually emits Pacific local
// time; which reading is correct cannot be determined from the data, so the
// policy is explicit configuration, never inferred.
//
// Both policies parse the literal digits without any zone conversion. They
// differ only in the serialized field name, the rendered form, and the
// timezone descriptors recorded on the bundle.
type TimestampPolicy interface {
	// Name identifies the policy ("utc" or "local").
	Name() string

	// FieldName is the bundle field the record timestamp is stored under
	// (date_utc or date_pst).
	FieldName() string

	// ParseExportDate parses a raw export date string such as
	// "2024-07-01 23:13:15 UTC". The zone label is optional.
	ParseExportDate(s string) (time.Time, error)

	// FormatRecord renders a capture timestamp for the bundle.
	FormatRecord(t time.Time) string

	// ParseRecord is the inverse of FormatRecord. It tolerates a trailing
	// "Z" regardless of policy so bundles written by either tool
	// generation load cleanly.
	ParseRecord(s string) (time.Time, error)

	// Descriptors returns the bundle timezone descriptors, or ok=false
	// when the policy records none.
	Descriptors() (tz, offset string, ok bool)
}

// exportDate matches "YYYY-MM-DD HH:MM:SS" with an optional trailing
// zone label. The label is deliberately ignored: it is not trustworthy.
var exportDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})(?:\s+\S+)?$`)

func parseExportDigits(s string) (time.Time, error) {
	m := exportDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	t, err := time.Parse("2006-01-02 15:04:05", m[1]+" "+m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return t, nil
}

func parseRecordDigits(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrParse, s)
	}
	return t, nil
}

// UTCPolicy treats the export's zone label as literal UTC.
type UTCPolicy struct{}

func (UTCPolicy) Name() string      { return "utc" }
func (UTCPolicy) FieldName() string { return "date_utc" }

func (UTCPolicy) ParseExportDate(s string) (time.Time, error) { return parseExportDigits(s) }

func (UTCPolicy) FormatRecord(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + "Z"
}

func (UTCPolicy) ParseRecord(s string) (time.Time, error) { return parseRecordDigits(s) }

func (UTCPolicy) Descriptors() (string, string, bool) { return "", "", false }

// LocalPolicy treats the export's timestamps as mislabelled local time at a
// fixed offset (Pacific, UTC-8, unless configured otherwise).
type LocalPolicy struct {
	// OffsetHours is the UTC offset the digits are assumed to be in.
	OffsetHours int
}

func (LocalPolicy) Name() string      { return "local" }
func (LocalPolicy) FieldName() string { return "date_pst" }

func (LocalPolicy) ParseExportDate(s string) (time.Time, error) { return parseExportDigits(s) }

func (LocalPolicy) FormatRecord(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

func (LocalPolicy) ParseRecord(s string) (time.Time, error) { return parseRecordDigits(s) }

func (p LocalPolicy) Descriptors() (string, string, bool) {
	offset := p.OffsetHours
	if offset == 0 {
		offset = -8
	}
	label := "PST"
	if offset != -8 {
		label = fmt.Sprintf("UTC%+d", offset)
	}
	return label, fmt.Sprintf("UTC%+d", offset), true
}

// PolicyByName resolves a configured policy name. Unknown names fall back
// to the utc policy so a stale config key cannot silently shift dates.
func PolicyByName(name string, offsetHours int) TimestampPolicy {
	if strings.EqualFold(name, "local") {
		return LocalPolicy{OffsetHours: offsetHours}
	}
	return UTCPolicy{}
}
