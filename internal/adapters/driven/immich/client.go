// Package immich implements the LibraryClient port against the Immich
// HTTP API. The API surface drifts between server versions, so decoding
// is defensive: asset names and coordinates are read from whichever field
// the server populated.
package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

// deviceID identifies uploads from this tool in the Immich device registry.
const deviceID = "snapbridge"

// Ensure Client implements the interface.
var _ driven.LibraryClient = (*Client)(nil)

// Client talks to one Immich server.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client for the given server URL and API key.
// The URL is normalized to end in /api, matching how Immich mounts
// its REST surface.
func NewClient(serverURL, apiKey string) *Client {
	baseURL := strings.TrimRight(serverURL, "/")
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL += "/api"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// assetJSON is the defensive wire shape of one Immich asset. Older servers
// return originalPath, newer ones originalFileName; coordinates appear
// under exifInfo or at the top level depending on the endpoint.
type assetJSON struct {
	ID               string   `json:"id"`
	OriginalFileName string   `json:"originalFileName"`
	OriginalPath     string   `json:"originalPath"`
	FileCreatedAt    string   `json:"fileCreatedAt"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ExifInfo         struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"exifInfo"`
}

func (a *assetJSON) toDomain() domain.RemoteAsset {
	asset := domain.RemoteAsset{ID: a.ID}

	asset.FileName = a.OriginalFileName
	if asset.FileName == "" && a.OriginalPath != "" {
		asset.FileName = filepath.Base(a.OriginalPath)
	}

	if t, err := parseNaive(a.FileCreatedAt); err == nil {
		asset.FileCreatedAt = &t
	}

	asset.Latitude = a.ExifInfo.Latitude
	asset.Longitude = a.ExifInfo.Longitude
	if asset.Latitude == nil {
		asset.Latitude = a.Latitude
	}
	if asset.Longitude == nil {
		asset.Longitude = a.Longitude
	}

	return asset
}

// parseNaive reads an ISO-8601 timestamp and discards any zone designator,
// so comparisons happen on literal clock digits.
func parseNaive(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	s = strings.TrimSuffix(s, "Z")
	if idx := strings.IndexAny(s, "+"); idx > 0 {
		s = s[:idx]
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ListAssets fetches the full remote asset list.
func (c *Client) ListAssets(ctx context.Context) ([]domain.RemoteAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/asset", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing assets: unexpected status %d", resp.StatusCode)
	}

	var raw []assetJSON
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding asset list: %v", domain.ErrParse, err)
	}

	assets := make([]domain.RemoteAsset, 0, len(raw))
	for i := range raw {
		assets = append(assets, raw[i].toDomain())
	}
	return assets, nil
}

// FindAssetByName looks an asset up by base name. It first tries the
// metadata search endpoint, then falls back to scanning the full asset
// list, because older servers lack the search surface.
func (c *Client) FindAssetByName(ctx context.Context, name string) (*domain.RemoteAsset, error) {
	if asset, err := c.searchByName(ctx, name); err == nil && asset != nil {
		return asset, nil
	}

	assets, err := c.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	for i := range assets {
		base := assets[i].FileName
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if base == name || stem == name {
			return &assets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: asset %s", domain.ErrNotFound, name)
}

func (c *Client) searchByName(ctx context.Context, name string) (*domain.RemoteAsset, error) {
	body, err := json.Marshal(map[string]any{"originalFileName": name})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/metadata", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Assets struct {
			Items []assetJSON `json:"items"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Assets.Items) == 0 {
		return nil, nil
	}

	asset := result.Assets.Items[0].toDomain()
	return &asset, nil
}

// UpdateAsset submits a metadata repair for one asset.
func (c *Client) UpdateAsset(ctx context.Context, id string, update domain.AssetUpdate) error {
	payload := map[string]any{}
	if update.FileCreatedAt != "" {
		payload["fileCreatedAt"] = update.FileCreatedAt
	}
	if update.Latitude != nil {
		payload["latitude"] = *update.Latitude
	}
	if update.Longitude != nil {
		payload["longitude"] = *update.Longitude
	}
	if len(payload) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/asset/"+id, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpdateRejected, resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// UploadAsset uploads one processed file. Immich signals an exact duplicate
// with 409, which surfaces as domain.ErrDuplicate.
func (c *Client) UploadAsset(ctx context.Context, path string, fileCreatedAt string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	fields := map[string]string{
		"deviceAssetId": stem,
		"deviceId":      deviceID,
		"fileCreatedAt": fileCreatedAt,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("writing field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("assetData", base)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/asset/upload", &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Large videos take a while; give uploads a longer budget
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading asset: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, base)
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPut || (req.Method == http.MethodPost && !strings.Contains(req.URL.Path, "/upload")) {
		req.Header.Set("Content-Type", "application/json")
	}
}
