package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/polyarb-agent/pkg/ratelimit"
	"go.uber.org/zap"
)

// ErrMalformedPage is returned when a listing page is neither a list nor an
// object carrying a "markets" list.
var ErrMalformedPage = errors.New("malformed markets page")

// Client is an HTTP client for the Polymarket Gamma API.
// Every request first acquires a slot from the shared rate limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
}

// ClientConfig holds Gamma client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Limiter *ratelimit.Limiter
	Logger  *zap.Logger
}

// NewClient creates a new Gamma API client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New("gamma", 0, time.Second)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  cfg.Logger,
	}
}

// FetchPage fetches one page of active markets. The returned items are the
// raw, loosely typed records.
func (c *Client) FetchPage(ctx context.Context, limit int, offset int) ([]any, error) {
	params := url.Values{}
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("active", "true")

	requestURL := fmt.Sprintf("%s/markets?%s", c.baseURL, params.Encode())

	c.logger.Debug("fetching-markets",
		zap.String("url", requestURL),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	payload, err := c.getJSON(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	return pageItems(payload)
}

// FetchMarket fetches a single market record by ID.
func (c *Client) FetchMarket(ctx context.Context, marketID string) (map[string]any, error) {
	requestURL := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(marketID))

	payload, err := c.getJSON(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	item, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("market %s: %w", marketID, ErrMalformedPage)
	}
	return item, nil
}

func (c *Client) getJSON(ctx context.Context, requestURL string) (any, error) {
	err := c.limiter.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire rate limit: %w", err)
	}

	start := time.Now()
	defer func() {
		RequestDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polyarb-agent/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestErrorsTotal.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		RequestErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		RequestErrorsTotal.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var payload any
	err = json.Unmarshal(body, &payload)
	if err != nil {
		RequestErrorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return payload, nil
}

// pageItems accepts either a bare list or {"markets": [...]}.
func pageItems(payload any) ([]any, error) {
	switch t := payload.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if items, ok := t["markets"].([]any); ok {
			return items, nil
		}
	}
	return nil, ErrMalformedPage
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
