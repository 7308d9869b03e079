package gotoauth

import (
	"context"
	"io"
	"net/http"
	"time"
)

// defaultRequestTimeout bounds authenticated API calls made through Client.
const defaultRequestTimeout = 30 * time.Second

// Client issues authenticated HTTP requests. Every call passes through the
// session's EnsureAuthenticated gate and carries a bearer header, so
// callers never manage token state themselves.
type Client struct {
	session    *Session
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientHTTPClient sets the underlying HTTP client for API requests.
func WithClientHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client backed by the given session.
func NewClient(session *Session, opts ...ClientOption) *Client {
	c := &Client{
		session:    session,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues an authenticated GET request.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Post issues an authenticated POST request.
func (c *Client) Post(ctx context.Context, url string, body io.Reader, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

// Put issues an authenticated PUT request.
func (c *Client) Put(ctx context.Context, url string, body io.Reader, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, url, body, headers)
}

// Delete issues an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, url, nil, headers)
}

// Do issues an authenticated request. It attaches the bearer and JSON
// content-type headers, then merges caller-supplied headers on top so they
// win on conflict. Transport failures and non-2xx statuses surface as
// NetworkError; a 2xx response is returned live and the caller owns
// closing its body.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, headers http.Header) (*http.Response, error) {
	// AccessToken authenticates first when no usable token is held.
	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &NetworkError{Op: method, URL: url, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused, then surface the status.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &NetworkError{Op: method, URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}
