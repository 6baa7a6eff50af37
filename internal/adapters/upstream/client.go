// Package upstream holds the HTTP plumbing shared by the Stats API and
// Savant adapters: per-call timeouts, an outbound rate limiter and a circuit
// breaker per source. Requests are never retried.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/pitchtrack/pkg/logger"
	"github.com/okian/pitchtrack/pkg/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "pitcher-tracker-api/1.0"
	maxBodyBytes     = 64 << 20
)

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Request describes one GET against a source.
type Request struct {
	Path  string
	Query url.Values
	// Timeout overrides the client default when positive.
	Timeout time.Duration
}

// Client performs GETs against one upstream source.
type Client struct {
	source    string
	baseURL   string
	userAgent string
	timeout   time.Duration

	http    *http.Client
	limiter *rate.Limiter
	breaker BreakerSettings
	cb      *gobreaker.CircuitBreaker[*Response]
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit bounds outbound requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) {
		c.breaker = s
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client for source rooted at baseURL.
func New(source, baseURL string, opts ...Option) *Client {
	c := &Client{
		source:    source,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		http:      &http.Client{},
		limiter:   rate.NewLimiter(rate.Inf, 0),
		breaker:   DefaultBreakerSettings(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named(source)
	c.cb = newBreaker(source, c.breaker, c.log)
	return c
}

// Source returns the source name used in errors and metrics.
func (c *Client) Source() string { return c.source }

// Get performs req. Non-2xx statuses are returned as *StatusError together
// with the response so callers that tolerate them can still inspect it.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, unavailable(c.source, "throttle", err)
	}
	if wait := time.Since(waitStart); wait > time.Millisecond {
		metrics.RecordUpstreamThrottleWait(c.source, float64(wait.Microseconds())/1000)
	}

	start := time.Now()
	var statusResp *Response
	resp, err := c.cb.Execute(func() (*Response, error) {
		r, err := c.do(ctx, req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			statusResp = r
			return nil, &StatusError{Source: c.source, Code: r.StatusCode}
		}
		return r, nil
	})
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err == nil:
		metrics.RecordUpstreamRequest(c.source, "success", latencyMs)
		return resp, nil
	case rejected(err):
		metrics.RecordUpstreamRequest(c.source, "rejected", latencyMs)
		return nil, unavailable(c.source, "circuit", err)
	default:
		metrics.RecordUpstreamRequest(c.source, "failure", latencyMs)
		c.log.Debug(ctx, "upstream request failed",
			logger.String("path", req.Path),
			logger.Float64("latency_ms", latencyMs),
			logger.Error(err))
		var se *StatusError
		if errors.As(err, &se) {
			return statusResp, err
		}
		return nil, err
	}
}

// GetJSON performs req and decodes a 2xx JSON body into v.
func (c *Client) GetJSON(ctx context.Context, req Request, v any) error {
	resp, err := c.Get(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return unavailable(c.source, "decode", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.source, err)
	}
	hreq.Header.Set("User-Agent", c.userAgent)

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, unavailable(c.source, "request", err)
	}
	defer func() {
		if cerr := hresp.Body.Close(); cerr != nil {
			c.log.Debug(ctx, "close response body", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable(c.source, "read body", err)
	}
	return &Response{StatusCode: hresp.StatusCode, Body: body}, nil
}
