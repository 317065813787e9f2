// Package finnhub is the primary market data provider.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ai-stock-analyst/internal/api"
	"ai-stock-analyst/internal/provider"
	"ai-stock-analyst/internal/types"
)

const (
	Name           = "finnhub"
	DefaultBaseURL = "https://finnhub.io/api/v1"
)

type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	api    *api.Client
	apiKey string
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		api: api.NewClient(
			api.WithBaseURL(base),
			api.WithTimeout(timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
			api.WithLogging(true),
		),
		apiKey: cfg.APIKey,
	}
}

func decodeError(body []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	return env.Error
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey == "" {
		return &types.ProviderError{Provider: Name, Message: "FINNHUB_API_KEY missing"}
	}
	q.Set("token", c.apiKey)
	resp, err := c.api.GET(ctx, path, q)
	if err != nil {
		return provider.MapError(Name, err, decodeError)
	}
	if err := resp.ParseJSON(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", types.ErrInvalidResponse, Name, path, err)
	}
	return nil
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote returns the current price snapshot. Unknown symbols come back
// as an all-zero object and are reported as no data.
func (c *Client) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	sym, err := validSymbol(symbol)
	if err != nil {
		return types.Quote{}, err
	}
	var r quoteResponse
	if err := c.get(ctx, "/quote", url.Values{"symbol": {sym}}, &r); err != nil {
		return types.Quote{}, err
	}
	if r.Timestamp == 0 && r.Current == 0 {
		return types.Quote{}, fmt.Errorf("%w: %s has no quote for %s", types.ErrNoDataAvailable, Name, sym)
	}
	return types.Quote{
		Symbol:        sym,
		Current:       r.Current,
		High:          r.High,
		Low:           r.Low,
		Open:          r.Open,
		PreviousClose: r.PreviousClose,
		Time:          time.Unix(r.Timestamp, 0).UTC(),
	}, nil
}

type candleResponse struct {
	Close     []*float64 `json:"c"`
	High      []*float64 `json:"h"`
	Low       []*float64 `json:"l"`
	Open      []*float64 `json:"o"`
	Volume    []*float64 `json:"v"`
	Timestamp []int64    `json:"t"`
	Status    string     `json:"s"`
}

// Candles returns bars in [from, to] at the given resolution, newest first.
func (c *Client) Candles(ctx context.Context, symbol string, from, to time.Time, resolution string) (types.SeriesWindow, error) {
	sym, err := validSymbol(symbol)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("symbol", sym)
	q.Set("resolution", resolution)
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var r candleResponse
	if err := c.get(ctx, "/stock/candle", q, &r); err != nil {
		return nil, err
	}
	if r.Status != "ok" {
		return nil, fmt.Errorf("%w: %s candle status %q for %s", types.ErrNoDataAvailable, Name, r.Status, sym)
	}

	bars := make(types.SeriesWindow, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, ok1 := at(r.Open, i)
		h, ok2 := at(r.High, i)
		l, ok3 := at(r.Low, i)
		cl, ok4 := at(r.Close, i)
		v, ok5 := at(r.Volume, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			continue
		}
		bar, err := types.NewBar(time.Unix(ts, 0).UTC(), o, h, l, cl, int64(math.Round(v)))
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no usable candles for %s", types.ErrNoDataAvailable, Name, sym)
	}
	bars.SortNewestFirst()
	return bars, nil
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func validSymbol(symbol string) (string, error) {
	if _, err := provider.EscapeSymbol(symbol); err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(symbol)), nil
}
