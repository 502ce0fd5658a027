package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skyrace/console/internal/logging"
	"skyrace/console/internal/metrics"
)

// TokenSource supplies the bearer token for each request. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// Client is the single funnel for every call to the admin API.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	tokens         TokenSource
	limiter        *rate.Limiter
	logger         *zap.SugaredLogger
	metrics        *metrics.MetricsRegistry
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithRateLimit bounds outgoing requests to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.MetricsRegistry) Option {
	return func(c *Client) { c.metrics = m }
}

// OnUnauthorized registers a hook fired on every 401 response.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client for baseURL. timeout bounds each round trip.
func New(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logging.Named("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request sends one call and returns the raw JSON body. path is relative
// to BaseURL; body, when non-nil, is JSON encoded.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if err := c.wait(ctx); err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	resource := resourceOf(path)
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(method, resource, "transport", start)
		c.logger.Warnw("API request failed", "request_id", requestID, "method", method, "path", path, "error", err)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, resource, "transport", start)
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	c.observe(method, resource, strconv.Itoa(resp.StatusCode/100)+"xx", start)

	c.logger.Debugw("API request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := newHTTPError(resp.StatusCode, method, path, respBody)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, httpErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(respBody), nil
}

// Do is Request followed by decoding into out. A nil out discards the body.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	raw, err := c.Request(ctx, method, path, body, query)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if c.limiter.Tokens() < 1 && c.metrics != nil {
		c.metrics.APIRateLimitWaits.Inc()
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) observe(method, resource, statusClass string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIRequestsTotal.WithLabelValues(method, resource, statusClass).Inc()
	c.metrics.APIRequestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
}

// resourceOf maps "/admin/flights/123" to "flights" for metric labels.
func resourceOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return "unknown"
	}
	if parts[0] == "admin" && len(parts) > 1 {
		return parts[1]
	}
	return parts[0]
}
