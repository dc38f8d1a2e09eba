package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false // httptest listens on loopback
	return cfg
}

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Bakery Expands Downtown</title></head>
<body>
<article>
<h1>Bakery Expands Downtown</h1>
<p>The family-owned bakery announced a second location on Main Street this week,
adding twelve jobs and a larger production kitchen to keep up with demand.</p>
<p>Owners said the expansion follows three years of steady growth.</p>
</article>
</body>
</html>`

func TestFetchContentExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fetchUserAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	f := NewReadabilityFetcher(testConfig())
	text, err := f.FetchContent(context.Background(), srv.URL+"/story")

	require.NoError(t, err)
	assert.Contains(t, text, "second location on Main Street")
	assert.NotContains(t, text, "<p>")
}

func TestFetchContentRejectsBadScheme(t *testing.T) {
	f := NewReadabilityFetcher(testConfig())

	_, err := f.FetchContent(context.Background(), "ftp://example.com/story")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetchContentRejectsPrivateIP(t *testing.T) {
	cfg := DefaultConfig() // DenyPrivateIPs on
	f := NewReadabilityFetcher(cfg)

	_, err := f.FetchContent(context.Background(), "http://127.0.0.1/story")
	assert.ErrorIs(t, err, ErrPrivateIP)
}

func TestFetchContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewReadabilityFetcher(testConfig())
	_, err := f.FetchContent(context.Background(), srv.URL)

	assert.ErrorContains(t, err, "HTTP 404")
}

func TestFetchContentBodySizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>", strings.Repeat("x", 4096), "</p></body></html>")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 2048
	// Validate() floor is 1KB, so this stays a legal config.
	require.NoError(t, cfg.Validate())

	f := NewReadabilityFetcher(cfg)
	_, err := f.FetchContent(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchContentRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 2

	f := NewReadabilityFetcher(cfg)
	_, err := f.FetchContent(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetchContentTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	f := NewReadabilityFetcher(cfg)
	_, err := f.FetchContent(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "deadline"), "got: %v", err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONTENT_FETCH_ENABLED", "false")
	t.Setenv("CONTENT_FETCH_THRESHOLD", "2000")
	t.Setenv("CONTENT_FETCH_TIMEOUT", "5s")

	cfg, err := LoadConfigFromEnv()

	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2000, cfg.Threshold)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("CONTENT_FETCH_THRESHOLD", "plenty")

	_, err := LoadConfigFromEnv()
	assert.ErrorContains(t, err, "CONTENT_FETCH_THRESHOLD")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRedirects = 50
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())
}
