package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

// Ensure ExtractService implements the interface.
var _ driving.Extractor = (*ExtractService)(nil)

// ExtractService runs the metadata-extraction phase: normalise one export
// file into canonical records, derive identity, and persist the bundle.
type ExtractService struct {
	normalisers map[driving.SourceFormat]driven.Normaliser
	bundles     driven.BundleStore
	policy      domain.TimestampPolicy

	// now is injectable for tests.
	now func() time.Time
}

// NewExtractService creates an extractor over the given per-format
// normalisers and bundle store.
func NewExtractService(
	normalisers map[driving.SourceFormat]driven.Normaliser,
	bundles driven.BundleStore,
	policy domain.TimestampPolicy,
) *ExtractService {
	return &ExtractService{
		normalisers: normalisers,
		bundles:     bundles,
		policy:      policy,
		now:         time.Now,
	}
}

// Extract normalises inputPath and saves the bundle to bundlePath.
func (s *ExtractService) Extract(
	ctx context.Context,
	format driving.SourceFormat,
	inputPath, bundlePath string,
) (*driving.ExtractReport, error) {
	normaliser, ok := s.normalisers[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported source format %q", domain.ErrInvalidInput, format)
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, inputPath)
		}
		return nil, fmt.Errorf("read export: %w", err)
	}

	records, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise export: %w", err)
	}

	AssignIdentity(records)

	bundle := &domain.MetadataBundle{
		ExtractedAt: s.now(),
		TotalCount:  len(records),
		Records:     records,
	}
	switch format {
	case driving.FormatHTML:
		bundle.SourceHTML = inputPath
	case driving.FormatJSON:
		bundle.SourceJSON = inputPath
	}
	if tz, offset, ok := s.policy.Descriptors(); ok {
		bundle.Timezone = tz
		bundle.TimezoneOffset = offset
	}

	for i := range records {
		rec := &records[i]
		loc := "no GPS"
		if rec.Location.Valid {
			loc = fmt.Sprintf("GPS: %.4f, %.4f", rec.Location.Latitude, rec.Location.Longitude)
		}
		logger.Debug("[%3d] %s | %-5s | %s", rec.Ordinal, rec.DateKey, rec.MediaType, loc)
	}

	if err := s.bundles.Save(ctx, bundle, bundlePath); err != nil {
		return nil, fmt.Errorf("save bundle: %w", err)
	}

	report := buildExtractReport(bundle)
	report.BundlePath = bundlePath
	logger.Info("Extracted %d memories to %s", report.Total, bundlePath)
	return report, nil
}

// buildExtractReport computes the post-extraction summary shown to the user.
func buildExtractReport(bundle *domain.MetadataBundle) *driving.ExtractReport {
	report := &driving.ExtractReport{Total: len(bundle.Records)}

	dates := make(map[string]int)
	var first, last string
	for i := range bundle.Records {
		rec := &bundle.Records[i]
		switch rec.MediaType {
		case domain.MediaImage:
			report.Images++
		case domain.MediaVideo:
			report.Videos++
		}
		if rec.Location.Valid {
			report.WithGPS++
		} else {
			report.WithoutGPS++
		}

		day, _, _ := strings.Cut(rec.DateKey, "_")
		dates[day]++
		if first == "" || rec.DateKey < first {
			first = rec.DateKey
		}
		if rec.DateKey > last {
			last = rec.DateKey
		}
	}

	if first != "" {
		report.FirstDate, _, _ = strings.Cut(first, "_")
		report.LastDate, _, _ = strings.Cut(last, "_")
	}

	for date, count := range dates {
		report.ActiveDates = append(report.ActiveDates, driving.DateCount{Date: date, Count: count})
	}
	sort.Slice(report.ActiveDates, func(i, j int) bool {
		if report.ActiveDates[i].Count != report.ActiveDates[j].Count {
			return report.ActiveDates[i].Count > report.ActiveDates[j].Count
		}
		return report.ActiveDates[i].Date < report.ActiveDates[j].Date
	})
	if len(report.ActiveDates) > 5 {
		report.ActiveDates = report.ActiveDates[:5]
	}

	return report
}
