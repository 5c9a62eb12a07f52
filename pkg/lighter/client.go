// Package lighter is a Go client for the zkLighter REST market-data API.
// It covers account lookup, orderbook metadata, candlesticks, and funding
// rates. Every call is a single blocking GET with a per-call timeout and
// no retry; see RequestError for how failures surface.
package lighter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public mainnet endpoint.
const DefaultBaseURL = "https://mainnet.zklighter.elliot.ai"

// DefaultTimeout is the per-request timeout used when Config.Timeout is
// zero and no explicit timeout is passed to Request.
const DefaultTimeout = 10 * time.Second

// healthCheckTimeout is fixed regardless of the configured timeout.
const healthCheckTimeout = 5 * time.Second

// Config holds the immutable settings for a Client.
type Config struct {
	// BaseURL of the API. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout applied to each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Headers sent with every request in addition to "accept:
	// application/json".
	Headers map[string]string
}

// ConfigFromEnv builds a Config from the ZKLIGHTER_BASE_URL and
// REQUEST_TIMEOUT (integer seconds) environment variables. Unset or
// unparseable variables leave the corresponding field zero, so New still
// applies its defaults.
func ConfigFromEnv() Config {
	var cfg Config
	if v := os.Getenv("ZKLIGHTER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// Client talks to one zkLighter API deployment. All state is fixed at
// construction, so a Client is safe for concurrent use.
type Client struct {
	baseURL    string
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Client from cfg, filling unset fields with defaults. A nil
// logger falls back to slog.Default.
func New(cfg Config, log *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	headers := map[string]string{"accept": "application/json"}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		headers:    headers,
		httpClient: &http.Client{},
		log:        log,
	}
}

// BaseURL returns the resolved base URL the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Request performs one GET against path (resolved against the base URL)
// with the given query parameters and returns the response body as raw
// JSON. A timeout <= 0 uses the configured default. Timeouts, connection
// failures, non-2xx statuses, and bodies that are not valid JSON all
// surface as *RequestError; there is no retry.
func (c *Client) Request(ctx context.Context, path string, params url.Values, timeout time.Duration) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.log.Info("requesting", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, c.fail(u, 0, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(u, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(u, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(u, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}
	if !json.Valid(body) {
		return nil, c.fail(u, resp.StatusCode, errors.New("response body is not valid JSON"))
	}
	return json.RawMessage(body), nil
}

func (c *Client) fail(url string, status int, err error) error {
	rerr := &RequestError{URL: url, Status: status, Err: err}
	c.log.Error("request failed", "url", url, "err", err)
	return rerr
}

// HealthCheck reports whether the API answers at the base URL. It uses a
// fixed 5-second timeout, discards the body, and never returns an error:
// every failure mode maps to false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Request(ctx, "/", nil, healthCheckTimeout)
	return err == nil
}

// AccountIndex fetches the account index for an L1 address.
func (c *Client) AccountIndex(ctx context.Context, l1Address string) (json.RawMessage, error) {
	if l1Address == "" {
		return nil, fmt.Errorf("l1 address must not be empty: %w", ErrInvalidArgument)
	}
	params := url.Values{"l1_address": {l1Address}}
	return c.Request(ctx, "/api/v1/accountsByL1Address", params, 0)
}

// Account fetches a single account, looked up either by index or by L1
// address. by must be "index" or "l1_address" and value must be non-empty
// after trimming whitespace.
func (c *Client) Account(ctx context.Context, by, value string) (json.RawMessage, error) {
	if by != "index" && by != "l1_address" {
		return nil, fmt.Errorf("lookup key %q must be \"index\" or \"l1_address\": %w", by, ErrInvalidArgument)
	}
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("lookup value must not be empty: %w", ErrInvalidArgument)
	}
	params := url.Values{"by": {by}, "value": {value}}
	return c.Request(ctx, "/api/v1/account", params, 0)
}

// OrderbookDetails fetches orderbook metadata for one market, or for all
// markets when marketID is empty. An empty marketID omits the market_id
// parameter entirely rather than sending an empty value.
func (c *Client) OrderbookDetails(ctx context.Context, marketID string) (json.RawMessage, error) {
	var params url.Values
	if marketID != "" {
		params = url.Values{"market_id": {marketID}}
	}
	return c.Request(ctx, "/api/v1/orderBookDetails", params, 0)
}

// CandleQuery selects a window of time-series data. Zero-valued fields
// take the API defaults: market "1", end timestamp 5_000_000_000_000,
// count-back 10, and a per-endpoint default resolution.
type CandleQuery struct {
	MarketID       string
	Resolution     string
	StartTimestamp int64
	EndTimestamp   int64
	CountBack      int64
}

func (q CandleQuery) withDefaults(resolution string) CandleQuery {
	if q.MarketID == "" {
		q.MarketID = "1"
	}
	if q.Resolution == "" {
		q.Resolution = resolution
	}
	if q.EndTimestamp == 0 {
		q.EndTimestamp = 5_000_000_000_000
	}
	if q.CountBack == 0 {
		q.CountBack = 10
	}
	return q
}

func (q CandleQuery) validate(allowed map[string]bool) error {
	if q.StartTimestamp >= q.EndTimestamp {
		return fmt.Errorf("start timestamp %d must be before end timestamp %d: %w",
			q.StartTimestamp, q.EndTimestamp, ErrInvalidArgument)
	}
	if !allowed[q.Resolution] {
		return fmt.Errorf("resolution %q is not supported: %w", q.Resolution, ErrInvalidArgument)
	}
	return nil
}

func (q CandleQuery) params() url.Values {
	return url.Values{
		"market_id":       {q.MarketID},
		"resolution":      {q.Resolution},
		"start_timestamp": {strconv.FormatInt(q.StartTimestamp, 10)},
		"end_timestamp":   {strconv.FormatInt(q.EndTimestamp, 10)},
		"count_back":      {strconv.FormatInt(q.CountBack, 10)},
	}
}

var candleResolutions = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "12h": true, "1d": true, "1w": true,
}

var fundingResolutions = map[string]bool{"1h": true, "1d": true}

// Candlesticks fetches OHLCV candles for a market. Supported resolutions:
// 1m, 5m, 15m, 30m, 1h, 4h, 12h, 1d, 1w. Default resolution is 1d.
func (c *Client) Candlesticks(ctx context.Context, q CandleQuery) (json.RawMessage, error) {
	q = q.withDefaults("1d")
	if err := q.validate(candleResolutions); err != nil {
		return nil, err
	}
	return c.Request(ctx, "/api/v1/candlesticks", q.params(), 0)
}

// FundingRates fetches historical funding rates for a market. Supported
// resolutions: 1h, 1d. Default resolution is 1h.
func (c *Client) FundingRates(ctx context.Context, q CandleQuery) (json.RawMessage, error) {
	q = q.withDefaults("1h")
	if err := q.validate(fundingResolutions); err != nil {
		return nil, err
	}
	return c.Request(ctx, "/api/v1/fundings", q.params(), 0)
}

// CurrentFundingRates fetches the current funding rate for every market.
func (c *Client) CurrentFundingRates(ctx context.Context) (json.RawMessage, error) {
	return c.Request(ctx, "/api/v1/funding-rates", nil, 0)
}
