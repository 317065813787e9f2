package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"ai-stock-analyst/internal/logger"
)

var (
	// ErrBadRequest wraps failures to build or encode an outgoing request.
	ErrBadRequest = errors.New("invalid request")
	// ErrTransport wraps connection, timeout and body read failures.
	ErrTransport = errors.New("transport failure")
)

// StatusError is returned for any response other than 200 OK.
// The body is kept so callers can decode provider error envelopes.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, truncate(string(e.Body), 256))
}

// Client represents an HTTP client with common configuration and utilities
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	useLogging bool
	limiter    *rate.Limiter
}

// logDebug logs debug messages using the global logger
func (c *Client) logDebug(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

// logWarn logs warning messages using the global logger
func (c *Client) logWarn(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}

// logError logs error messages using the global logger
func (c *Client) logError(ctx context.Context, msg string, args ...interface{}) {
	if c.useLogging {
		logger.Error(ctx, msg, args...)
	}
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders sets several default headers at once
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithLogging enables logging for the API client
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// A non-positive rps leaves the client unthrottled.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new API client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers:    make(map[string]string),
		useLogging: false, // Default: logging disabled for performance
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request represents an HTTP request configuration
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	ctx     context.Context
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// NewRequest creates a new request
func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

// WithContext sets the context for the request
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// WithBody sets the request body (will be JSON encoded)
func (r *Request) WithBody(body interface{}) *Request {
	r.Body = body
	return r
}

// WithQuery sets query parameters appended to the URL
func (r *Request) WithQuery(q url.Values) *Request {
	r.Query = q
	return r
}

// WithHeader sets a request-specific header
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// Do executes the HTTP request
func (c *Client) Do(req *Request) (*Response, error) {
	target := req.URL
	if c.baseURL != "" {
		target = c.baseURL + req.URL
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			c.logError(req.ctx, "Failed to marshal request body", "error", err)
			return nil, fmt.Errorf("%w: marshal body: %v", ErrBadRequest, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(req.ctx, req.Method, target, bodyReader)
	if err != nil {
		c.logError(req.ctx, "Failed to create HTTP request", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	// Set default headers
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	// Set request-specific headers (override defaults)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(req.ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
	}

	c.logDebug(req.ctx, "HTTP Request", "method", req.Method, "url", redact(httpReq.URL))

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logError(req.ctx, "HTTP request failed", "method", req.Method, "url", redact(httpReq.URL), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.logError(req.ctx, "Failed to read response body", "error", err)
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	c.logDebug(req.ctx, "HTTP Response",
		"method", req.Method,
		"url", redact(httpReq.URL),
		"status", httpResp.StatusCode,
		"duration", time.Since(startTime),
		"bodySize", len(body))

	if httpResp.StatusCode != http.StatusOK {
		c.logWarn(req.ctx, "HTTP error response",
			"method", req.Method,
			"url", redact(httpReq.URL),
			"status", httpResp.StatusCode,
			"body", truncate(string(body), 512))
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: body}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// GET performs a GET request
func (c *Client) GET(ctx context.Context, path string, query url.Values, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodGet, path).WithContext(ctx).WithQuery(query)

	if len(headers) > 0 {
		for key, value := range headers[0] {
			req.WithHeader(key, value)
		}
	}

	return c.Do(req)
}

// POST performs a POST request
func (c *Client) POST(ctx context.Context, path string, query url.Values, body interface{}, headers ...map[string]string) (*Response, error) {
	req := NewRequest(http.MethodPost, path).
		WithContext(ctx).
		WithQuery(query).
		WithBody(body)

	if len(headers) > 0 {
		for key, value := range headers[0] {
			req.WithHeader(key, value)
		}
	}

	return c.Do(req)
}

// ParseJSON parses the response body as JSON into the given struct
func (r *Response) ParseJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// String returns the response body as a string
func (r *Response) String() string {
	return string(r.Body)
}

// Common header presets for different APIs

// YahooFinanceHeaders returns headers for Yahoo Finance API
func YahooFinanceHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}
}

// redact hides credentials passed as query parameters.
func redact(u *url.URL) string {
	q := u.Query()
	for _, k := range []string{"token", "apikey", "api_key", "key"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
