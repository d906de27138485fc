// Package ratelimit provides an HTTP client that retries 429 responses with
// exponential backoff, honouring Retry-After.
package ratelimit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config holds configuration for the rate-limiting HTTP client.
type Config struct {
	// MaxRetries is the maximum number of retries after a 429. Default: 3
	MaxRetries int

	// BaseDelay is the initial backoff. Default: 1 second
	BaseDelay time.Duration

	// MaxDelay caps a single backoff. Default: 16 seconds
	MaxDelay time.Duration

	// EnableJitter adds ±20% jitter to computed (not Retry-After) delays.
	EnableJitter bool

	// Timeout bounds each individual attempt. Default: 30 seconds
	Timeout time.Duration

	// Header is added to every request (auth, API version).
	Header http.Header

	Stats *Stats

	// API name used in errors.
	API string
}

// Client is an HTTP client that handles rate limiting with exponential backoff.
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	enableJitter bool
	header       http.Header
	stats        *Stats
	api          string
}

// NewClient creates a new rate-limiting HTTP client with the given configuration.
func NewClient(cfg Config) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 16 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   maxRetries,
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		enableJitter: cfg.EnableJitter,
		header:       cfg.Header.Clone(),
		stats:        cfg.Stats,
		api:          cfg.API,
	}
}

// Do performs a request, retrying while the server answers 429.
// The caller owns the returned response body.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, vs := range c.header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()
		if c.stats != nil {
			c.stats.RecordRateLimit()
		}
		if attempt >= c.maxRetries {
			return nil, &RateLimitError{API: c.api, Attempts: attempt + 1}
		}

		delay := c.calculateBackoff(attempt, ParseRetryAfter(resp.Header.Get("Retry-After")))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// calculateBackoff computes the delay before retry number attempt+1.
func (c *Client) calculateBackoff(attempt int, retryAfter *time.Duration) time.Duration {
	if retryAfter != nil {
		return *retryAfter
	}

	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	if c.enableJitter {
		delay = time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
	}
	return delay
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// RateLimitError is returned when retries are exhausted.
type RateLimitError struct {
	API      string
	Attempts int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	api := e.API
	if api == "" {
		api = "API"
	}
	return fmt.Sprintf("%s rate limit exceeded after %d attempts", api, e.Attempts)
}

// ParseRetryAfter parses a Retry-After header given in seconds or as an HTTP date.
// Returns nil if the value is empty or invalid.
func ParseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return nil
		}
		d := time.Duration(seconds * float64(time.Second))
		return &d
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}

// Stats counts rate limit events.
type Stats struct {
	mu              sync.RWMutex
	rateLimitCount  int64
	lastRateLimitAt time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// RecordRateLimit records a rate limit event.
func (s *Stats) RecordRateLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimitCount++
	s.lastRateLimitAt = time.Now()
}

// RateLimitCount returns the total number of rate limit events.
func (s *Stats) RateLimitCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLimitCount
}

// LastRateLimitTime returns the time of the last rate limit event.
func (s *Stats) LastRateLimitTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRateLimitAt
}
