package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_DirectRequestCarriesRouteTag(t *testing.T) {
	var gotTag, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTag = r.Header.Get("X-Snap-Route-Tag")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	f := NewFetcher(0)
	data, contentType, err := f.Fetch(context.Background(), server.URL, true)
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, "mem-dmd", gotTag)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}

func TestFetch_IndirectRequestOmitsRouteTag(t *testing.T) {
	var gotTag string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTag = r.Header.Get("X-Snap-Route-Tag")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(0)
	_, _, err := f.Fetch(context.Background(), server.URL, false)
	require.NoError(t, err)
	assert.Empty(t, gotTag)
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4"))
	}))
	defer server.Close()

	f := NewFetcher(time.Millisecond)
	data, contentType, err := f.Fetch(context.Background(), server.URL, false)
	require.NoError(t, err)

	assert.Equal(t, []byte("mp4"), data)
	assert.Equal(t, "video/mp4", contentType)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(time.Millisecond)
	_, _, err := f.Fetch(context.Background(), server.URL, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(time.Second)
	_, _, err := f.Fetch(ctx, server.URL, false)
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	f := NewFetcher(2 * time.Second)
	assert.Equal(t, 2*time.Second, f.backoff(1))
	assert.Equal(t, 4*time.Second, f.backoff(2))

	// Without a configured delay the backoff anchors to one second.
	f = NewFetcher(0)
	assert.Equal(t, time.Second, f.backoff(1))
}
