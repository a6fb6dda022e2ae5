package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultMaxBodySize bounds response bodies when no limit is configured.
const defaultMaxBodySize = 64 * 1024 * 1024

// Fetcher fetches the bytes behind a URL.
// Non-success statuses are not errors at this level; callers decide what a
// status means for them through Response.OK and Response.Err.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, truncated at the client's max body size.
	Body []byte
}

// OK reports whether the response has status 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Err returns a *StatusError for any status other than 200, or nil.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{URL: r.URL, StatusCode: r.StatusCode}
}

// Client is an http.Client wrapper with a fixed User-Agent and body limit.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits how many bytes of a body are read.
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum body size. Non-positive values keep the default.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
// The timeout given to NewClient is not applied to a replaced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client whose requests time out after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch performs a GET request and reads the whole body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	return &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Do sends an arbitrary request through the underlying http.Client with the
// configured User-Agent. The translation clients use it for POST requests.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}
