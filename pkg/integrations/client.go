package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/tagresolver/pkg/observability"
)

// Client provides shared HTTP functionality for upstream API clients.
// It applies default headers, a per-call deadline, and status mapping.
type Client struct {
	http     *http.Client
	headers  map[string]string
	timeout  time.Duration
	attempts int
}

// NewClient creates a Client with default headers and a per-call timeout.
// Headers are applied to all requests made through this client.
// A zero timeout selects the package default of 10 seconds.
func NewClient(headers map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = httpTimeout
	}
	return &Client{
		http:     NewHTTPClient(),
		headers:  headers,
		timeout:  timeout,
		attempts: retryAttempts,
	}
}

// SetRetries sets how many times a request is attempted in total. Values
// below one are treated as one.
func (c *Client) SetRetries(attempts int) {
	c.attempts = max(attempts, 1)
}

// SetHTTPClient replaces the underlying transport client. Intended for tests
// that point the client at an httptest server.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// The response headers are returned so callers can inspect pagination links.
func (c *Client) Get(ctx context.Context, url string, v any) (http.Header, error) {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
// Transport failures and 5xx responses are retried once while the per-call
// deadline allows.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) (http.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var header http.Header
	err := Retry(ctx, c.attempts, retryDelay, func() error {
		var err error
		header, err = c.do(ctx, rawURL, headers, v)
		return err
	})
	return header, unwrapRetryable(err)
}

func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string, v any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	host, path := describe(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		err = fmt.Errorf("%w: %w", ErrNetwork, err)
		if ctx.Err() == nil {
			return nil, &RetryableError{Err: err}
		}
		return nil, err
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		if resp.StatusCode >= 500 {
			return resp.Header, &RetryableError{Err: err}
		}
		return resp.Header, err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.Header, fmt.Errorf("%w: decode response: %w", ErrNetwork, err)
	}
	return resp.Header, nil
}

func describe(u *url.URL) (host, path string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
