package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// StatusError is returned when the producer answers with a status that
// is neither success nor not-modified.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Payload is the raw outcome of one conditional fetch. When NotModified
// is true the remaining fields are unset and the caller's cached content
// is still current.
type Payload struct {
	NotModified bool
	Body        []byte    // CSV snapshot body
	ETag        string    // Producer's content-identity token
	CapturedAt  time.Time // Producer-assigned capture instant
}

// Client fetches telemetry snapshots from the producer.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a producer client for the given snapshot URL.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch performs one conditional GET against the producer. etag is the
// last-seen snapshot id; pass "" on the first fetch to force a full
// transfer.
func (c *Client) Fetch(ctx context.Context, etag string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/csv")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		io.Copy(io.Discard, resp.Body)
		return &Payload{NotModified: true}, nil
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	respETag := resp.Header.Get("ETag")
	if respETag == "" {
		return nil, fmt.Errorf("response missing ETag header")
	}

	capturedAt := time.Time{}
	if raw := resp.Header.Get("X-Snapshot-Ts"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse X-Snapshot-Ts %q: %w", raw, err)
		}
		capturedAt = time.UnixMilli(ms)
	}

	c.logger.Debug("snapshot fetched",
		"etag", respETag,
		"bytes", len(body),
	)

	return &Payload{
		Body:       body,
		ETag:       respETag,
		CapturedAt: capturedAt,
	}, nil
}
