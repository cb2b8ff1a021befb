package driven

import "context"

// Fetcher downloads one media item from a signed export URL.
// Retry, backoff and rate limiting are the adapter's concern; the core
// treats an exhausted-retry failure as permanent for that one item.
type Fetcher interface {
	// Fetch returns the media bytes and the response content type.
	// direct indicates the URL needs the export routing header rather
	// than being pre-authenticated.
	Fetch(ctx context.Context, url string, direct bool) (data []byte, contentType string, err error)
}
