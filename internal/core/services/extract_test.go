package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driving"
)

// stubNormaliser returns a fixed record set.
type stubNormaliser struct {
	records []domain.MemoryRecord
	err     error
}

func (s *stubNormaliser) Normalise(_ context.Context, _ []byte) ([]domain.MemoryRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func extractFixture(t *testing.T) (string, []domain.MemoryRecord) {
	t.Helper()

	input := filepath.Join(t.TempDir(), "memories_history.json")
	require.NoError(t, os.WriteFile(input, []byte("{}"), 0o644))

	records := []domain.MemoryRecord{
		{
			CapturedAt: time.Date(2024, 7, 1, 23, 13, 15, 0, time.UTC),
			DateKey:    "2024-07-01_23-13-15",
			MediaType:  domain.MediaImage,
		},
		{
			CapturedAt: time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
			DateKey:    "2024-07-01_09-00-00",
			MediaType:  domain.MediaVideo,
			Location:   domain.NewLocation(48.8566, 2.3522),
		},
		{
			CapturedAt: time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC),
			DateKey:    "2024-06-30_09-00-00",
			MediaType:  domain.MediaImage,
		},
	}
	return input, records
}

func TestExtract(t *testing.T) {
	input, records := extractFixture(t)
	store := newMemBundleStore()
	svc := NewExtractService(
		map[driving.SourceFormat]driven.Normaliser{
			driving.FormatJSON: &stubNormaliser{records: records},
		},
		store,
		domain.UTCPolicy{},
	)
	bundlePath := filepath.Join(t.TempDir(), "bundle.json")

	report, err := svc.Extract(context.Background(), driving.FormatJSON, input, bundlePath)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Images)
	assert.Equal(t, 1, report.Videos)
	assert.Equal(t, 1, report.WithGPS)
	assert.Equal(t, 2, report.WithoutGPS)
	assert.Equal(t, "2024-06-30", report.FirstDate)
	assert.Equal(t, "2024-07-01", report.LastDate)
	assert.Equal(t, bundlePath, report.BundlePath)

	require.Len(t, report.ActiveDates, 2)
	assert.Equal(t, driving.DateCount{Date: "2024-07-01", Count: 2}, report.ActiveDates[0])
	assert.Equal(t, driving.DateCount{Date: "2024-06-30", Count: 1}, report.ActiveDates[1])

	// The saved bundle carries identity and provenance.
	bundle, err := store.Load(context.Background(), bundlePath)
	require.NoError(t, err)
	assert.Equal(t, input, bundle.SourceJSON)
	assert.Empty(t, bundle.SourceHTML)
	assert.Equal(t, 3, bundle.TotalCount)
	assert.Equal(t, 1, bundle.Records[0].Ordinal)
	assert.Equal(t, "2024-07-01_23-13-15_image_0001", bundle.Records[0].DerivedFilename)
	assert.Equal(t, "2024-07-01_09-00-00_video_0002_gps", bundle.Records[1].DerivedFilename)
}

func TestExtract_LocalPolicyRecordsDescriptors(t *testing.T) {
	input, records := extractFixture(t)
	store := newMemBundleStore()
	svc := NewExtractService(
		map[driving.SourceFormat]driven.Normaliser{
			driving.FormatJSON: &stubNormaliser{records: records},
		},
		store,
		domain.LocalPolicy{},
	)
	bundlePath := filepath.Join(t.TempDir(), "bundle.json")

	_, err := svc.Extract(context.Background(), driving.FormatJSON, input, bundlePath)
	require.NoError(t, err)

	bundle, err := store.Load(context.Background(), bundlePath)
	require.NoError(t, err)
	assert.Equal(t, "PST", bundle.Timezone)
	assert.Equal(t, "UTC-8", bundle.TimezoneOffset)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	svc := NewExtractService(map[driving.SourceFormat]driven.Normaliser{}, newMemBundleStore(), domain.UTCPolicy{})

	_, err := svc.Extract(context.Background(), driving.FormatHTML, "in.html", "out.json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_MissingInput(t *testing.T) {
	svc := NewExtractService(
		map[driving.SourceFormat]driven.Normaliser{driving.FormatJSON: &stubNormaliser{}},
		newMemBundleStore(),
		domain.UTCPolicy{},
	)

	_, err := svc.Extract(context.Background(), driving.FormatJSON, filepath.Join(t.TempDir(), "absent.json"), "out.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtract_NormaliserError(t *testing.T) {
	input, _ := extractFixture(t)
	svc := NewExtractService(
		map[driving.SourceFormat]driven.Normaliser{
			driving.FormatJSON: &stubNormaliser{err: domain.ErrEmptyExport},
		},
		newMemBundleStore(),
		domain.UTCPolicy{},
	)

	_, err := svc.Extract(context.Background(), driving.FormatJSON, input, "out.json")
	assert.ErrorIs(t, err, domain.ErrEmptyExport)
}
