package fpl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/platform/cache"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
	"github.com/riskibarqy/fpl-insight/internal/platform/resilience"
	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

const (
	defaultBaseURL  = "https://fantasy.premierleague.com/api"
	bootstrapPath   = "/bootstrap-static/"
	maxResponseSize = 8 << 20
	cacheKeyPrefix  = "fpl:"
)

var (
	ErrNotFound         = crerr.New("fpl resource not found")
	ErrMalformedPayload = crerr.New("fpl payload is malformed")

	errTransient = crerr.New("fpl transient failure")
)

// CacheTTL sets how long each upstream payload is reused.
type CacheTTL struct {
	Bootstrap time.Duration
	Picks     time.Duration
	History   time.Duration
}

func DefaultCacheTTL() CacheTTL {
	return CacheTTL{
		Bootstrap: time.Hour,
		Picks:     5 * time.Minute,
		History:   5 * time.Minute,
	}
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Cache          cache.Backend
	CacheTTL       CacheTTL
}

// Client reads the public Fantasy Premier League API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      resilience.RetryPolicy
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
	cache      cache.Backend
	ttl        CacheTTL
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("fpl")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retry := cfg.Retry
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = resilience.DefaultRetryPolicy().BaseDelay
	}

	var breaker *resilience.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breaker = resilience.NewCircuitBreaker("fpl", cfg.CircuitBreaker).OnStateChange(func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
		})
	}

	backend := cfg.Cache
	if backend == nil {
		backend = cache.NewMemoryBackend()
	}

	ttl := cfg.CacheTTL
	defaults := DefaultCacheTTL()
	if ttl.Bootstrap <= 0 {
		ttl.Bootstrap = defaults.Bootstrap
	}
	if ttl.Picks <= 0 {
		ttl.Picks = defaults.Picks
	}
	if ttl.History <= 0 {
		ttl.History = defaults.History
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "fpl-insight"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		retry:      retry,
		logger:     logger,
		breaker:    breaker,
		cache:      backend,
		ttl:        ttl,
	}
}

// FetchTeamSnapshot returns the picks and entry summary a manager submitted for a gameweek.
func (c *Client) FetchTeamSnapshot(ctx context.Context, managerID int64, gw int) (manager.TeamSnapshot, error) {
	if managerID <= 0 {
		return manager.TeamSnapshot{}, fmt.Errorf("%w: manager id must be greater than zero", usecase.ErrInvalidInput)
	}
	if err := gameweek.Validate(gw); err != nil {
		return manager.TeamSnapshot{}, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err)
	}

	path := fmt.Sprintf("/entry/%d/event/%d/picks/", managerID, gw)
	var payload picksEnvelope
	if err := c.getJSON(ctx, path, c.ttl.Picks, &payload); err != nil {
		return manager.TeamSnapshot{}, fmt.Errorf("fetch picks manager_id=%d gw=%d: %w", managerID, gw, classify(err))
	}

	snapshot, err := mapSnapshot(managerID, gw, payload)
	if err != nil {
		c.invalidate(ctx, path)
		return manager.TeamSnapshot{}, classify(err)
	}
	return snapshot, nil
}

// FetchEntryHistory returns a manager's per-gameweek season history.
func (c *Client) FetchEntryHistory(ctx context.Context, managerID int64) ([]manager.GameweekHistory, error) {
	if managerID <= 0 {
		return nil, fmt.Errorf("%w: manager id must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/entry/%d/history/", managerID)
	var payload historyEnvelope
	if err := c.getJSON(ctx, path, c.ttl.History, &payload); err != nil {
		return nil, fmt.Errorf("fetch history manager_id=%d: %w", managerID, classify(err))
	}
	return mapHistory(payload), nil
}

// FetchDirectory returns the player catalog and team names from bootstrap-static.
func (c *Client) FetchDirectory(ctx context.Context) (player.Directory, error) {
	payload, err := c.bootstrap(ctx)
	if err != nil {
		return player.Directory{}, err
	}

	dir, skipped := mapDirectory(payload)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "skipped invalid bootstrap elements", "skipped", skipped, "kept", dir.Len())
	}
	return dir, nil
}

func (c *Client) FetchEvents(ctx context.Context) ([]gameweek.Event, error) {
	payload, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return mapEvents(payload), nil
}

// RefreshBootstrap drops the cached bootstrap payload and loads it again.
func (c *Client) RefreshBootstrap(ctx context.Context) error {
	c.invalidate(ctx, bootstrapPath)
	_, err := c.bootstrap(ctx)
	return err
}

// BreakerState reports the upstream circuit state; closed when the breaker is disabled.
func (c *Client) BreakerState() resilience.CircuitState {
	return c.breaker.State()
}

func (c *Client) bootstrap(ctx context.Context) (bootstrapEnvelope, error) {
	var payload bootstrapEnvelope
	if err := c.getJSON(ctx, bootstrapPath, c.ttl.Bootstrap, &payload); err != nil {
		return bootstrapEnvelope{}, fmt.Errorf("fetch bootstrap-static: %w", classify(err))
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, ttl time.Duration, target any) error {
	key := cacheKeyPrefix + path
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "fpl cache read failed", "key", key, "error", err)
	} else if ok {
		if err := sonic.Unmarshal(raw, target); err == nil {
			return nil
		}
		c.invalidate(ctx, path)
	}

	out, err, _ := c.flight.DoContext(ctx, path, func() (any, error) {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fpl api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}

		raw, reqErr := c.executeRequest(ctx, c.baseURL+path)
		switch {
		case reqErr == nil:
			c.breaker.RecordSuccess()
		case isTransient(reqErr):
			c.breaker.RecordFailure()
		case ctx.Err() != nil:
			c.breaker.Release()
		default:
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedPayload, path, err)
	}

	if err := c.cache.Set(ctx, key, raw, ttl); err != nil {
		c.logger.WarnContext(ctx, "fpl cache write failed", "key", key, "error", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("user-agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = crerr.Mark(fmt.Errorf("send request: %w", err), errTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(fmt.Errorf("read response body: %w", readErr), errTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(fmt.Errorf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), errTransient)
			default:
				return nil, fmt.Errorf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.retry.MaxRetries {
			break
		}
		if err := c.retry.Wait(ctx, attempt); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fpl request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) invalidate(ctx context.Context, path string) {
	if err := c.cache.Delete(ctx, cacheKeyPrefix+path); err != nil {
		c.logger.WarnContext(ctx, "fpl cache delete failed", "path", path, "error", err)
	}
}

// classify maps client failures onto the usecase error taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, usecase.ErrDependencyUnavailable), stderrors.Is(err, usecase.ErrNotFound), stderrors.Is(err, usecase.ErrInvalidInput):
		return err
	case crerr.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", usecase.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err)
	}
}

func isTransient(err error) bool {
	return err != nil && crerr.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
