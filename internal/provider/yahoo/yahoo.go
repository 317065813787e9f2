// Package yahoo is the secondary market data provider: chart history,
// news headlines, symbol search and the volatility index.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"ai-stock-analyst/internal/api"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/provider"
	"ai-stock-analyst/internal/types"
)

const (
	Name           = "yahoo"
	DefaultBaseURL = "https://query2.finance.yahoo.com"
)

// Config configures the client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the chart and search endpoints.
type Client struct {
	api *api.Client
}

// NewClient creates a rate limited client.
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
			api.WithHeaders(api.YahooFinanceHeaders()),
			api.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
			api.WithLogging(true),
		),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		ExchangeName       string   `json:"exchangeName"`
		MarketState        string   `json:"marketState"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		PreMarketPrice     *float64 `json:"preMarketPrice"`
		PostMarketPrice    *float64 `json:"postMarketPrice"`
		PreviousClose      *float64 `json:"previousClose"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func decodeChartError(body []byte) string {
	var env chartResponse
	if err := json.Unmarshal(body, &env); err != nil || env.Chart.Error == nil {
		return ""
	}
	if env.Chart.Error.Description != "" {
		return env.Chart.Error.Description
	}
	return env.Chart.Error.Code
}

// fetchChart performs the chart request and unwraps the result envelope.
func (c *Client) fetchChart(ctx context.Context, symbol string, q url.Values) (*chartResult, error) {
	path, err := provider.EscapeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.api.GET(ctx, "/v8/finance/chart/"+path, q)
	if err != nil {
		return nil, provider.MapError(Name, err, decodeChartError)
	}

	var env chartResponse
	if err := resp.ParseJSON(&env); err != nil {
		return nil, fmt.Errorf("%w: %s chart: %v", types.ErrInvalidResponse, Name, err)
	}
	if env.Chart.Error != nil {
		return nil, &types.ProviderError{Provider: Name, Status: resp.StatusCode, Message: env.Chart.Error.Description}
	}
	if len(env.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s returned no chart for %s", types.ErrNoDataAvailable, Name, symbol)
	}
	return &env.Chart.Result[0], nil
}

// Chart fetches bars between from and to at the given interval. Rows with
// any missing field are skipped and the result is sorted newest first.
func (c *Client) Chart(ctx context.Context, symbol string, from, to time.Time, interval string) (types.Chart, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", interval)
	q.Set("includePrePost", "false")

	res, err := c.fetchChart(ctx, symbol, q)
	if err != nil {
		return types.Chart{}, err
	}
	return c.toChart(ctx, symbol, res)
}

// ChartRange fetches bars for a named range such as "1mo" or "1d".
func (c *Client) ChartRange(ctx context.Context, symbol, rng, interval string) (types.Chart, error) {
	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", interval)

	res, err := c.fetchChart(ctx, symbol, q)
	if err != nil {
		return types.Chart{}, err
	}
	return c.toChart(ctx, symbol, res)
}

func (c *Client) toChart(ctx context.Context, symbol string, res *chartResult) (types.Chart, error) {
	bars := decodeBars(ctx, res)
	if len(bars) == 0 {
		return types.Chart{}, fmt.Errorf("%w: %s returned no bars for %s", types.ErrNoDataAvailable, Name, symbol)
	}

	prev := res.Meta.PreviousClose
	if prev == nil {
		prev = res.Meta.ChartPreviousClose
	}
	return types.Chart{
		Meta: types.ChartMeta{
			Symbol:             res.Meta.Symbol,
			Currency:           res.Meta.Currency,
			ExchangeName:       res.Meta.ExchangeName,
			MarketState:        res.Meta.MarketState,
			RegularMarketPrice: res.Meta.RegularMarketPrice,
			PreMarketPrice:     res.Meta.PreMarketPrice,
			PostMarketPrice:    res.Meta.PostMarketPrice,
			PreviousClose:      prev,
		},
		Bars: bars,
	}, nil
}

func decodeBars(ctx context.Context, res *chartResult) types.SeriesWindow {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]

	bars := make(types.SeriesWindow, 0, len(res.Timestamp))
	skipped := 0
	for i, ts := range res.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		cl, ok4 := at(q.Close, i)
		vol, ok5 := at(q.Volume, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			skipped++
			continue
		}
		bar, err := types.NewBar(time.Unix(ts, 0).UTC(), open, high, low, cl, int64(math.Round(vol)))
		if err != nil {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}
	if skipped > 0 {
		logger.Debug(ctx, "Skipped incomplete chart rows", "provider", Name, "skipped", skipped, "kept", len(bars))
	}

	bars.SortNewestFirst()
	return bars
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// VolatilityIndex reads the latest daily value of an index such as ^VIX,
// using the close when present and the open otherwise.
func (c *Client) VolatilityIndex(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "1d")

	res, err := c.fetchChart(ctx, symbol, q)
	if err != nil {
		return 0, err
	}
	if len(res.Indicators.Quote) == 0 {
		return 0, fmt.Errorf("%w: %s has no quote block", types.ErrNoDataAvailable, symbol)
	}
	quote := res.Indicators.Quote[0]
	for i := len(res.Timestamp) - 1; i >= 0; i-- {
		if v, ok := at(quote.Close, i); ok && finite(v) {
			return v, nil
		}
		if v, ok := at(quote.Open, i); ok && finite(v) {
			return v, nil
		}
	}
	if p := res.Meta.RegularMarketPrice; p != nil && finite(*p) {
		return *p, nil
	}
	return 0, fmt.Errorf("%w: no value for %s", types.ErrNoDataAvailable, symbol)
}
