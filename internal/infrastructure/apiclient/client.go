package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxResponseSize caps how much of a response body is read (10MB)
const DefaultMaxResponseSize = 10 * 1024 * 1024

const tracerName = "github.com/stockmgmt/dashboard/apiclient"

// TokenSource yields the bearer token for the current session.
// An empty token means the request is sent without Authorization.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func(ctx context.Context) string

// Token implements TokenSource
func (f TokenFunc) Token(ctx context.Context) string { return f(ctx) }

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token(context.Context) string { return string(s) }

// Response is a completed 2xx exchange
type Response struct {
	StatusCode int
	Body       []byte
	// NoContent is set for 204 responses, which carry no body at all.
	// A 200 with a JSON null body leaves it false.
	NoContent bool
}

// Decode unmarshals the body into out. It is a no-op for 204 responses.
func (r *Response) Decode(out any) error {
	if r.NoContent || out == nil {
		return nil
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty body with status %d", ErrInvalidResponse, r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Client talks JSON to the inventory backend
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	logger          *zap.Logger
	tokens          TokenSource
	metrics         *Metrics
	limiter         *rate.Limiter
	tracer          trace.Tracer
	maxResponseSize int64
	pageSize        int
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for failed requests
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithMetrics enables prometheus request metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLimiter throttles page walks done by FetchAll
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a client for the backend described by cfg
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url must be absolute: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:         base,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          zap.NewNop(),
		tracer:          otel.Tracer(tracerName),
		maxResponseSize: cfg.MaxResponseSize,
		pageSize:        cfg.PageSize,
	}
	if c.maxResponseSize <= 0 {
		c.maxResponseSize = DefaultMaxResponseSize
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE; the backend answers 204
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends one request. Non-2xx responses become *HTTPError, transport
// failures wrap ErrRequestFailed. Failures are logged and returned unchanged.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient "+method+" "+EndpointLabel(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, method, path, query, body)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if he, ok := err.(*HTTPError); ok {
		status = he.StatusCode
	}
	c.metrics.observe(method, path, status, time.Since(start))
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}

	if err == nil {
		err = resp.Decode(out)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrRequestFailed, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: httpResp.StatusCode,
			Body:       string(data),
		}
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       data,
		NoContent:  httpResp.StatusCode == http.StatusNoContent,
	}, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
