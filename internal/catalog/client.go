// Package catalog fetches pages from the remote catalog over HTTP, with
// per-host rate limiting and status classification.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anditianred/ao3-api/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public catalog.
	DefaultBaseURL = "https://archiveofourown.org"

	defaultRPS       = 0.5
	defaultBurst     = 2
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "ao3-api/1.0 (+https://github.com/anditianred/ao3-api)"

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 5 << 20
)

// Options configures a Client. Zero fields take defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
}

// Client is a rate-limited catalog client.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// New creates a catalog client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:   ratelimit.New(opts.RPS, opts.Burst),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		logger:    logger,
	}
}

// BaseURL returns the catalog root requests are built against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Fetch GETs rawURL and returns the body of a 200 response.
//
// A 429 yields ErrRateLimited, a 404 ErrNotFound and any 5xx ErrServer, each
// wrapped in *Error. Rate limited requests are not retried.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, wrapError("fetch", rawURL, 0, fmt.Errorf("parse url: %w", err))
	}

	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, wrapError("fetch", rawURL, 0, fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, wrapError("fetch", rawURL, 0, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("catalog request", "host", u.Host, "path", u.Path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError("fetch", rawURL, 0, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	// The status decides the outcome; only a 200 body is read.
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, wrapError("fetch", rawURL, resp.StatusCode, ErrNotFound)
	case http.StatusTooManyRequests:
		if retry := resp.Header.Get("Retry-After"); retry != "" {
			c.logger.Warn("catalog rate limited", "retry_after", retry)
		}
		return nil, wrapError("fetch", rawURL, resp.StatusCode, ErrRateLimited)
	default:
		if resp.StatusCode >= 500 {
			return nil, wrapError("fetch", rawURL, resp.StatusCode, ErrServer)
		}
		return nil, wrapError("fetch", rawURL, resp.StatusCode,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, wrapError("fetch", rawURL, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if len(body) > maxBodySize {
		return nil, wrapError("fetch", rawURL, resp.StatusCode, ErrTooLarge)
	}

	c.logger.Debug("catalog response",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}

// IsRateLimited reports whether err came from a rate limited response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
