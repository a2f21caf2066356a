package poller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/imroc/req/v3"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; a single badge only ever talks to one host
const (
	defaultMaxIdleConns    = 10
	defaultMaxConnsPerHost = 4
	defaultIdleConnTimeout = 60 * time.Second
)

const userAgent = "healthbadge"

// Response holds the result of an HTTP request made by [Client].
//
// Response captures the body (limited to 1MB), status code, latency, and any
// error that occurred before a response could be read.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport error. nil means a response was read,
	// whatever its status code.
	Error error
}

// Client is an HTTP client wrapper for polling a health endpoint.
//
// Client uses per-request timeouts via context rather than a global timeout.
// Retries are disabled: a failed cycle is simply followed by the next
// scheduled one.
type Client struct {
	rc *req.Client
}

// NewClient creates a new polling [Client].
func NewClient() *Client {
	rc := req.C().
		SetUserAgent(userAgent).
		SetCommonRetryCount(0)

	rc.GetTransport().
		SetMaxIdleConns(defaultMaxIdleConns).
		SetMaxConnsPerHost(defaultMaxConnsPerHost).
		SetIdleConnTimeout(defaultIdleConnTimeout)

	return &Client{rc: rc}
}

// Fetch performs a GET request and returns a structured [Response].
//
// The timeout is applied via context cancellation, so cancelling ctx aborts
// the request as well.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		DisableAutoReadResponse().
		Get(url)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil client. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.rc == nil {
		return
	}
	c.rc.GetClient().CloseIdleConnections()
}
