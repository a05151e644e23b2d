package sleeper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Connector selects one of the two upstream hosts. Each has its own base URL
// and timeout.
type Connector string

const (
	// ConnectorApp serves the player catalog and user lookups.
	ConnectorApp Connector = "app"
	// ConnectorStats serves per-player stats and projections.
	ConnectorStats Connector = "stats"
)

const (
	defaultAppBaseURL   = "https://api.sleeper.app/v1"
	defaultStatsBaseURL = "https://api.sleeper.com"
	defaultAppTimeout   = 10 * time.Second
	defaultStatsTimeout = 15 * time.Second
	maxBodyBytes        = 32 << 20
	maxLoggedBodyLength = 240
)

type ClientConfig struct {
	HTTPClient        *http.Client
	AppBaseURL        string
	StatsBaseURL      string
	AppTimeout        time.Duration
	StatsTimeout      time.Duration
	RequestsPerMinute int
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

type connector struct {
	baseURL    string
	httpClient *http.Client
}

// Client talks to the Sleeper fantasy and stats APIs. It never retries on
// its own; callers decide what to do with TransportError and HTTPStatusError.
type Client struct {
	connectors map[Connector]connector
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	flight     singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := logging.OrDefault(cfg.Logger)

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		perSecond := float64(cfg.RequestsPerMinute) / 60
		burst := max(1, cfg.RequestsPerMinute/60)
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}

	breaker := resilience.NewCircuitBreakerFromConfig("sleeper", cfg.CircuitBreaker)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("upstream circuit state changed", "breaker", name, "from", from, "to", to)
	})

	return &Client{
		connectors: map[Connector]connector{
			ConnectorApp:   newConnector(base, cfg.AppBaseURL, defaultAppBaseURL, cfg.AppTimeout, defaultAppTimeout),
			ConnectorStats: newConnector(base, cfg.StatsBaseURL, defaultStatsBaseURL, cfg.StatsTimeout, defaultStatsTimeout),
		},
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

func newConnector(base *http.Client, baseURL, fallbackURL string, timeout, fallbackTimeout time.Duration) connector {
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = fallbackURL
	}

	httpClient := *base
	httpClient.Timeout = timeout
	return connector{baseURL: baseURL, httpClient: &httpClient}
}

// Get performs one GET against the selected connector and decodes the body
// into a Document. Identical concurrent requests share a single round trip,
// which runs detached from any one caller's cancellation and is admitted
// by the breaker once.
func (c *Client) Get(ctx context.Context, conn Connector, path string, params url.Values) (Document, error) {
	target, ok := c.connectors[conn]
	if !ok {
		return Document{}, fmt.Errorf("unknown sleeper connector %q", conn)
	}

	fullURL := target.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	ch := c.flight.DoChan(string(conn)+" "+fullURL, func() (any, error) {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "connector", conn, "state", c.breaker.State())
			return Document{}, fmt.Errorf("%w: sleeper is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), target.httpClient.Timeout)
		defer cancel()

		doc, reqErr := c.execute(callCtx, conn, target.httpClient, fullURL)
		c.breaker.Record(reqErr, isCircuitFailure)
		return doc, reqErr
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Document{}, &TransportError{Connector: conn, URL: fullURL, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		c.logger.WarnContext(ctx, "sleeper request failed", "connector", conn, "url", fullURL, "error", res.Err)
		return Document{}, res.Err
	}

	doc := res.Val.(Document)
	if doc.Malformed != "" {
		c.logger.WarnContext(ctx, "sleeper returned malformed body, using empty mapping",
			"connector", conn,
			"url", fullURL,
			"status", doc.StatusCode,
			"content_type", doc.ContentType,
			"reason", doc.Malformed,
		)
	}
	return doc, nil
}

func (c *Client) execute(ctx context.Context, conn Connector, httpClient *http.Client, fullURL string) (Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Document{}, &TransportError{Connector: conn, URL: fullURL, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Document{}, &TransportError{Connector: conn, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Document{}, &TransportError{Connector: conn, URL: fullURL, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, &HTTPStatusError{
			Connector:  conn,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       abbreviateBody(raw),
		}
	}

	return newDocument(resp.StatusCode, resp.Header.Get("Content-Type"), raw), nil
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) <= maxLoggedBodyLength {
		return body
	}
	return body[:maxLoggedBodyLength] + "..."
}
