// Package transport is the single HTTP client the services use to reach the backend.
//
// Every call is JSON in and JSON out, bounded by a fixed timeout, and passes through
// request interceptors (bearer credential, request id) and response interceptors
// (credential invalidation on 401).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmynk/meumural/internal/metrics"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// RequestInterceptor runs on every outbound request before it is sent.
type RequestInterceptor func(ctx context.Context, req *http.Request)

// ResponseInterceptor runs on every response received, whatever its status.
type ResponseInterceptor func(ctx context.Context, req *http.Request, resp *http.Response)

// Client sends JSON requests to a fixed base endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onRequest  []RequestInterceptor
	onResponse []ResponseInterceptor
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.onRequest = append(c.onRequest, i) }
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.onResponse = append(c.onResponse, i) }
}

// WithMetrics records call durations and outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New returns a Client for baseURL with no interceptors installed.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAuthenticated returns a Client with the standard interceptors: a request id,
// the bearer credential from creds, and credential invalidation on 401.
// Interceptors passed in opts run after the standard ones.
func NewAuthenticated(baseURL string, creds Credentials, opts ...Option) *Client {
	c := New(baseURL, opts...)
	c.onRequest = append([]RequestInterceptor{
		RequestID(),
		BearerAuth(creds, c.logger),
	}, c.onRequest...)
	c.onResponse = append([]ResponseInterceptor{
		InvalidateOnUnauthorized(creds, c.logger),
	}, c.onResponse...)
	return c
}

// BaseURL returns the endpoint the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends method path with body encoded as JSON (nil for no body) and decodes the
// response into out (nil to discard it). Failures are always *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	route := routeOf(path)

	err := c.do(ctx, method, path, body, out)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = outcomeOf(err)
	}
	c.metrics.ObserveRequest(method, route, outcome, time.Since(start))
	c.logger.Debug("Remote call",
		"method", method,
		"path", path,
		"outcome", outcome,
		"status", StatusCode(err),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	fail := func(kind error, status int, msg string, cause error) error {
		return &Error{Method: method, Path: path, StatusCode: status, Message: msg, Kind: kind, Err: cause}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fail(ErrNetwork, 0, "", fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail(ErrNetwork, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, intercept := range c.onRequest {
		intercept(ctx, req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(ErrNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	for _, intercept := range c.onResponse {
		intercept(ctx, req, resp)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(ErrNetwork, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(ErrStatus, resp.StatusCode, errorMessage(payload), nil)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return fail(ErrDecode, resp.StatusCode, "", fmt.Errorf("empty body"))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fail(ErrDecode, resp.StatusCode, "", err)
	}
	return nil
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeOf replaces numeric path segments with ":id" to keep metric labels bounded.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}

func outcomeOf(err error) string {
	var te *Error
	if !errors.As(err, &te) {
		return metrics.OutcomeNetwork
	}
	switch te.Kind {
	case ErrStatus:
		return metrics.OutcomeStatus
	case ErrDecode:
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeNetwork
	}
}
