// Package fetch downloads memory media over HTTP. Snapchat's CDN expects
// the mem-dmd route tag on direct media URLs and throttles aggressive
// clients, so the fetcher paces requests with a rate limiter and retries
// transient failures with a linear backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
	"github.com/halcyon-labs/snapbridge-cli/internal/logger"
)

const (
	// routeTagHeader is required on direct media download URLs.
	routeTagHeader = "X-Snap-Route-Tag"
	routeTagValue  = "mem-dmd"

	userAgent = "Mozilla/5.0"

	maxRetries     = 3
	requestTimeout = 30 * time.Second
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher is an HTTP implementation of driven.Fetcher.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	delay   time.Duration
}

// NewFetcher creates a fetcher that waits at least delay between requests.
// A non-positive delay disables pacing.
func NewFetcher(delay time.Duration) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: requestTimeout},
		limiter: limiter,
		delay:   delay,
	}
}

// Fetch downloads the media behind url and returns the body together with
// the response Content-Type. Failed attempts are retried up to three times
// with a linearly growing backoff.
func (f *Fetcher) Fetch(ctx context.Context, url string, direct bool) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, contentType, err := f.fetchOnce(ctx, url, direct)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err

		if attempt < maxRetries {
			wait := f.backoff(attempt)
			logger.Warn("Attempt %d failed, retrying in %s: %v", attempt, wait, err)
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return nil, "", fmt.Errorf("all %d attempts failed: %w", maxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, direct bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}

	if direct {
		req.Header.Set(routeTagHeader, routeTagValue)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// backoff grows linearly with the attempt number, anchored to the
// configured inter-download delay.
func (f *Fetcher) backoff(attempt int) time.Duration {
	base := f.delay
	if base <= 0 {
		base = time.Second
	}
	return base * time.Duration(attempt)
}
