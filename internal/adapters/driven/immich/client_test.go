package immich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

func TestNewClient_NormalizesBaseURL(t *testing.T) {
	assert.Equal(t, "http://immich.local/api", NewClient("http://immich.local", "k").baseURL)
	assert.Equal(t, "http://immich.local/api", NewClient("http://immich.local/", "k").baseURL)
	assert.Equal(t, "http://immich.local/api", NewClient("http://immich.local/api", "k").baseURL)
	assert.Equal(t, "http://immich.local/api", NewClient("http://immich.local/api/", "k").baseURL)
}

func TestListAssets_DefensiveDecoding(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/asset", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`[
			{
				"id": "a1",
				"originalFileName": "photo_0001.jpg",
				"fileCreatedAt": "2024-07-01T23:13:15.000Z",
				"exifInfo": {"latitude": 37.77, "longitude": -122.41}
			},
			{
				"id": "a2",
				"originalPath": "/library/user/video_0002.mp4",
				"fileCreatedAt": "2024-07-02T10:00:00+00:00",
				"latitude": 51.5,
				"longitude": -0.12
			},
			{
				"id": "a3",
				"originalFileName": "no_meta.png"
			}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	assets, err := client.ListAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "secret", gotKey)

	// Name from originalFileName, coordinates from exifInfo.
	assert.Equal(t, "photo_0001.jpg", assets[0].FileName)
	require.NotNil(t, assets[0].FileCreatedAt)
	assert.True(t, assets[0].FileCreatedAt.Equal(time.Date(2024, 7, 1, 23, 13, 15, 0, time.UTC)))
	require.NotNil(t, assets[0].Latitude)
	assert.InDelta(t, 37.77, *assets[0].Latitude, 1e-9)

	// Name falls back to the path base, coordinates to the top level,
	// and the zone designator is discarded.
	assert.Equal(t, "video_0002.mp4", assets[1].FileName)
	require.NotNil(t, assets[1].FileCreatedAt)
	assert.True(t, assets[1].FileCreatedAt.Equal(time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, assets[1].Longitude)
	assert.InDelta(t, -0.12, *assets[1].Longitude, 1e-9)

	// Missing fields stay nil rather than zeroed.
	assert.Nil(t, assets[2].FileCreatedAt)
	assert.Nil(t, assets[2].Latitude)
}

func TestFindAssetByName_SearchEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search/metadata", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "photo_0001.jpg", body["originalFileName"])

		w.Write([]byte(`{"assets": {"items": [{"id": "a1", "originalFileName": "photo_0001.jpg"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	asset, err := client.FindAssetByName(context.Background(), "photo_0001.jpg")
	require.NoError(t, err)
	assert.Equal(t, "a1", asset.ID)
}

func TestFindAssetByName_FallsBackToListScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/search/metadata":
			// Older servers have no search surface.
			w.WriteHeader(http.StatusNotFound)
		case "/api/asset":
			w.Write([]byte(`[{"id": "a9", "originalFileName": "clip_0009.mp4"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")

	// Stem matching lets callers look up by derived name without extension.
	asset, err := client.FindAssetByName(context.Background(), "clip_0009")
	require.NoError(t, err)
	assert.Equal(t, "a9", asset.ID)

	_, err = client.FindAssetByName(context.Background(), "absent.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAsset(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	lat, lon := 37.77, -122.41
	client := NewClient(server.URL, "k")
	err := client.UpdateAsset(context.Background(), "a1", domain.AssetUpdate{
		FileCreatedAt: "2024-07-01T23:13:15Z",
		Latitude:      &lat,
		Longitude:     &lon,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/asset/a1", gotPath)
	assert.Equal(t, "2024-07-01T23:13:15Z", gotBody["fileCreatedAt"])
	assert.InDelta(t, 37.77, gotBody["latitude"].(float64), 1e-9)
}

func TestUpdateAsset_OmitsAbsentCoordinates(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	err := client.UpdateAsset(context.Background(), "a1", domain.AssetUpdate{FileCreatedAt: "2024-07-01T23:13:15Z"})
	require.NoError(t, err)

	assert.NotContains(t, gotBody, "latitude")
	assert.NotContains(t, gotBody, "longitude")
}

func TestUpdateAsset_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "invalid date"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	err := client.UpdateAsset(context.Background(), "a1", domain.AssetUpdate{FileCreatedAt: "bogus"})
	require.ErrorIs(t, err, domain.ErrUpdateRejected)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestUploadAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2024-07-01_23-13-15_image_0001.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))

	var fields map[string]string
	var fileName string
	var fileData []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/asset/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{
			"deviceAssetId": r.FormValue("deviceAssetId"),
			"deviceId":      r.FormValue("deviceId"),
			"fileCreatedAt": r.FormValue("fileCreatedAt"),
		}
		file, header, err := r.FormFile("assetData")
		require.NoError(t, err)
		defer file.Close()
		fileName = header.Filename
		fileData, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	require.NoError(t, client.UploadAsset(context.Background(), path, "2024-07-01T23:13:15.000Z"))

	assert.Equal(t, "2024-07-01_23-13-15_image_0001", fields["deviceAssetId"])
	assert.Equal(t, "snapbridge", fields["deviceId"])
	assert.Equal(t, "2024-07-01T23:13:15.000Z", fields["fileCreatedAt"])
	assert.Equal(t, "2024-07-01_23-13-15_image_0001.jpg", fileName)
	assert.Equal(t, []byte("jpeg-bytes"), fileData)
}

func TestUploadAsset_DuplicateConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupe.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k")
	err := client.UploadAsset(context.Background(), path, "2024-07-01T23:13:15.000Z")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestParseNaive(t *testing.T) {
	want := time.Date(2024, 7, 1, 23, 13, 15, 0, time.UTC)

	for _, input := range []string{
		"2024-07-01T23:13:15.000Z",
		"2024-07-01T23:13:15Z",
		"2024-07-01T23:13:15+02:00",
		"2024-07-01 23:13:15",
	} {
		got, err := parseNaive(input)
		require.NoError(t, err, input)
		assert.True(t, got.Equal(want), input)
	}

	_, err := parseNaive("")
	assert.Error(t, err)
	_, err = parseNaive("yesterday")
	assert.Error(t, err)
}
