package snaphtml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

const sampleExport = `<html><body><table>
<tr><th>Date</th><th>Media Type</th><th>Location</th><th>Download</th></tr>
<tr>
  <td>2024-07-01 23:13:15 UTC</td>
  <td>Image</td>
  <td>Latitude, Longitude: 0.0, 0.0</td>
  <td><a onclick="downloadMemories('https://example.com/dl?id=abc&amp;sig=1', this, true)">Download</a></td>
</tr>
<tr>
  <td>2023-12-25 08:30:00 UTC</td>
  <td>Video</td>
  <td>Latitude, Longitude: 37.7749295, -122.4194155</td>
  <td><a onclick="downloadMemories('https://example.com/dl?id=def', this, false)">Download</a></td>
</tr>
</table></body></html>`

func TestNormalise(t *testing.T) {
	n := New(domain.UTCPolicy{})

	records, err := n.Normalise(context.Background(), []byte(sampleExport))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, time.Date(2024, 7, 1, 23, 13, 15, 0, time.UTC), first.CapturedAt)
	assert.Equal(t, "2024-07-01_23-13-15", first.DateKey)
	assert.Equal(t, domain.MediaImage, first.MediaType)
	assert.False(t, first.Location.Valid, "0,0 must be the invalid sentinel")
	assert.Equal(t, "https://example.com/dl?id=abc&sig=1", first.SourceURL, "entities must be unescaped")
	assert.True(t, first.IsDirectRequest)
	assert.Equal(t, "2024-07-01 23:13:15 UTC", first.OriginalDateString)

	second := records[1]
	assert.Equal(t, domain.MediaVideo, second.MediaType)
	assert.True(t, second.Location.Valid)
	assert.InDelta(t, 37.774930, second.Location.Latitude, 1e-9)
	assert.InDelta(t, -122.419416, second.Location.Longitude, 1e-9)
	assert.False(t, second.IsDirectRequest)
}

func TestNormalise_SkipsHeaderAndBadRows(t *testing.T) {
	input := `<table>
<tr><th>Date</th><th>Media Type</th></tr>
<tr><td>not a date</td><td>Image</td>
  <td><a onclick="downloadMemories('https://example.com/x', this, true)">d</a></td></tr>
<tr><td>2024-01-01 00:00:00 UTC</td><td>Image</td>
  <td><a onclick="downloadMemories('https://example.com/y', this, true)">d</a></td></tr>
</table>`

	n := New(domain.UTCPolicy{})
	records, err := n.Normalise(context.Background(), []byte(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/y", records[0].SourceURL)
}

func TestNormalise_NoRows(t *testing.T) {
	n := New(domain.UTCPolicy{})
	_, err := n.Normalise(context.Background(), []byte("<html><body>nothing here</body></html>"))
	assert.ErrorIs(t, err, domain.ErrMalformedExport)
}

func TestNormalise_OnlyUnusableRows(t *testing.T) {
	input := `<table><tr><th>Date</th></tr><tr><td>2024-01-01 00:00:00 UTC</td></tr></table>`

	n := New(domain.UTCPolicy{})
	_, err := n.Normalise(context.Background(), []byte(input))
	assert.ErrorIs(t, err, domain.ErrEmptyExport)
}

func TestNormalise_MangledMarkup(t *testing.T) {
	// Unclosed cells and stray attributes still parse: the scanner is
	// pattern-based, not a strict DOM.
	input := `<TABLE><TR class="row">
<TD >2024-03-05 12:00:00 UTC</TD><td>Video</td><td></td>
<td><a href="#" onclick="downloadMemories('https://example.com/m', this, true)">get</a></td>
</TR></TABLE>`

	n := New(domain.UTCPolicy{})
	records, err := n.Normalise(context.Background(), []byte(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.MediaVideo, records[0].MediaType)
	assert.False(t, records[0].Location.Valid)
}

func TestParseLocation(t *testing.T) {
	loc := parseLocation("Latitude, Longitude: -33.8688, 151.2093")
	assert.True(t, loc.Valid)
	assert.InDelta(t, -33.8688, loc.Latitude, 1e-9)
	assert.InDelta(t, 151.2093, loc.Longitude, 1e-9)

	assert.False(t, parseLocation("").Valid)
	assert.False(t, parseLocation("No location data").Valid)
	assert.False(t, parseLocation("Latitude, Longitude: 0.0, 0.0").Valid)
}
