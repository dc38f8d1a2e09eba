package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:    maxAttempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       10 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoffFirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithBackoffRetriesTransientFailures(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(4), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "overloaded"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffExhaustionWrapsLastError(t *testing.T) {
	srvErr := &HTTPError{StatusCode: 500, Message: "broken"}
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return srvErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, srvErr)
}

func TestWithBackoffStopsOnPermanentError(t *testing.T) {
	badReq := &HTTPError{StatusCode: 400, Message: "bad request"}
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return badReq
	})

	assert.Equal(t, badReq, err, "permanent errors come back unwrapped")
	assert.Equal(t, 1, attempts)
}

func TestWithBackoffHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond

	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 502, Message: "bad gateway"}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "server error", err: &HTTPError{StatusCode: 500}, want: true},
		{name: "bad gateway", err: &HTTPError{StatusCode: 502}, want: true},
		{name: "service unavailable", err: &HTTPError{StatusCode: 503}, want: true},
		{name: "rate limited", err: &HTTPError{StatusCode: 429}, want: true},
		{name: "request timeout", err: &HTTPError{StatusCode: 408}, want: true},
		{name: "bad request", err: &HTTPError{StatusCode: 400}, want: false},
		{name: "not found", err: &HTTPError{StatusCode: 404}, want: false},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "timed out", err: syscall.ETIMEDOUT, want: true},
		{name: "network unreachable", err: syscall.ENETUNREACH, want: true},
		{name: "arbitrary error", err: errors.New("nope"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStrategyConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want Config
	}{
		{
			name: "default",
			cfg:  DefaultConfig(),
			want: Config{MaxAttempts: 3, InitialDelay: time.Second,
				MaxDelay: 30 * time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
		{
			name: "feed fetch",
			cfg:  FeedFetchConfig(),
			want: Config{MaxAttempts: 5, InitialDelay: time.Second,
				MaxDelay: 30 * time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
		{
			name: "ai api",
			cfg:  AIAPIConfig(),
			want: Config{MaxAttempts: 3, InitialDelay: 2 * time.Second,
				MaxDelay: 10 * time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
		{
			name: "database",
			cfg:  DBConfig(),
			want: Config{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond,
				MaxDelay: time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
		{
			name: "page scraper",
			cfg:  PageScraperConfig(),
			want: Config{MaxAttempts: 3, InitialDelay: time.Second,
				MaxDelay: 10 * time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
		{
			name: "renderer",
			cfg:  RendererConfig(),
			want: Config{MaxAttempts: 2, InitialDelay: 2 * time.Second,
				MaxDelay: 5 * time.Second, Multiplier: 2.0, JitterFraction: 0.1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg)
		})
	}
}

func TestRendererRetriesAtMostOnce(t *testing.T) {
	cfg := RendererConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond

	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		return &HTTPError{StatusCode: 500, Message: "render crashed"}
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts, "a failed render gets exactly one retry")
}

func TestHTTPErrorFormatting(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	assert.Equal(t, "HTTP 503: Service Unavailable", err.Error())
}

func TestAddJitterStaysWithinFraction(t *testing.T) {
	base := 100 * time.Millisecond

	seen := map[time.Duration]bool{}
	for range 20 {
		got := addJitter(base, 0.2)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, time.Duration(float64(base)*1.2))
		seen[got] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should vary between calls")
}

func TestAddJitterZeroFraction(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, base, addJitter(base, 0))
}
