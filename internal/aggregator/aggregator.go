// Package aggregator assembles a market snapshot from the configured
// providers, falling back tier by tier for prices.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/sentiment"
	"ai-stock-analyst/internal/types"
)

// Config tunes the price windows.
type Config struct {
	IntradayInterval      string
	IntradayLookback      time.Duration
	IntradayLimit         int
	MonthlyInterval       string
	MonthlyLookbackMonths int
	PrimaryResolution     string
	VolatilitySymbol      string
}

// DefaultConfig returns the standard windows: 3 days of 15 minute bars
// capped at 30, and one month of daily bars.
func DefaultConfig() Config {
	return Config{
		IntradayInterval:      "15m",
		IntradayLookback:      72 * time.Hour,
		IntradayLimit:         30,
		MonthlyInterval:       "1d",
		MonthlyLookbackMonths: 1,
		PrimaryResolution:     "D",
		VolatilitySymbol:      "^VIX",
	}
}

// priceResult is what a price tier yields.
type priceResult struct {
	intraday     types.SeriesWindow
	monthly      types.SeriesWindow
	displayPrice float64
	marketState  string
}

// tier is one price strategy in fallback order.
type tier struct {
	name  string
	fetch func(ctx context.Context, symbol string) (priceResult, error)
}

type Aggregator struct {
	tiers  []tier
	charts interfaces.ChartSource
	news   interfaces.NewsSource
	cfg    Config
	now    func() time.Time
}

var _ interfaces.Aggregator = (*Aggregator)(nil)

// New builds an aggregator. primary and news may be nil; charts is
// required since it serves both the fallback tier and the volatility index.
func New(cfg Config, primary interfaces.QuoteSource, charts interfaces.ChartSource, news interfaces.NewsSource) *Aggregator {
	a := &Aggregator{
		charts: charts,
		news:   news,
		cfg:    cfg,
		now:    time.Now,
	}
	if primary != nil {
		a.tiers = append(a.tiers, tier{name: "primary", fetch: a.primaryTier(primary)})
	}
	if charts != nil {
		a.tiers = append(a.tiers, tier{name: "secondary", fetch: a.secondaryTier(charts)})
	}
	return a
}

// Fetch runs the price tiers in order while news and sentiment load
// concurrently. Only a total price failure is an error; news and
// sentiment failures leave their fields empty.
func (a *Aggregator) Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", types.ErrInvalidSymbol)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	newsCh := make(chan []types.NewsItem, 1)
	go func() { newsCh <- a.fetchNews(ctx, symbol) }()

	sentCh := make(chan *types.SentimentSnapshot, 1)
	go func() { sentCh <- a.fetchSentiment(ctx) }()

	prices, source, err := a.fetchPrices(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return &types.MarketSnapshot{
		Symbol:       symbol,
		Intraday:     prices.intraday,
		Monthly:      prices.monthly,
		News:         <-newsCh,
		Sentiment:    <-sentCh,
		Source:       source,
		DisplayPrice: prices.displayPrice,
		MarketState:  prices.marketState,
		FetchedAt:    a.now(),
	}, nil
}

func (a *Aggregator) fetchPrices(ctx context.Context, symbol string) (priceResult, string, error) {
	if len(a.tiers) == 0 {
		return priceResult{}, "", fmt.Errorf("%w: no price providers configured", types.ErrNoDataAvailable)
	}

	errs := make([]error, 0, len(a.tiers))
	allNoData := true
	for _, t := range a.tiers {
		res, err := t.fetch(ctx, symbol)
		if err == nil {
			metrics.ObserveTier(t.name, "success")
			return res, t.name, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return priceResult{}, "", err
		}
		metrics.ObserveTier(t.name, "failure")
		logger.Warn(ctx, "Price tier failed", "tier", t.name, "symbol", symbol, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		if !errors.Is(err, types.ErrNoDataAvailable) {
			allNoData = false
		}
	}

	joined := errors.Join(errs...)
	if allNoData {
		return priceResult{}, "", fmt.Errorf("%w: %w", types.ErrNoDataAvailable, joined)
	}
	return priceResult{}, "", fmt.Errorf("%w: %w", types.ErrNetwork, joined)
}

func (a *Aggregator) primaryTier(src interfaces.QuoteSource) func(context.Context, string) (priceResult, error) {
	return func(ctx context.Context, symbol string) (priceResult, error) {
		quote, err := src.Quote(ctx, symbol)
		if err != nil {
			return priceResult{}, err
		}
		now := a.now()
		candles, err := src.Candles(ctx, symbol, now.AddDate(0, -a.cfg.MonthlyLookbackMonths, 0), now, a.cfg.PrimaryResolution)
		if err != nil {
			return priceResult{}, err
		}
		return priceResult{
			intraday:     types.SeriesWindow{quote.Bar()},
			monthly:      candles,
			displayPrice: quote.Current,
		}, nil
	}
}

func (a *Aggregator) secondaryTier(src interfaces.ChartSource) func(context.Context, string) (priceResult, error) {
	return func(ctx context.Context, symbol string) (priceResult, error) {
		now := a.now()

		var (
			wg                 sync.WaitGroup
			intraday, monthly  types.Chart
			intraErr, monthErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			intraday, intraErr = src.Chart(ctx, symbol, now.Add(-a.cfg.IntradayLookback), now, a.cfg.IntradayInterval)
		}()
		go func() {
			defer wg.Done()
			monthly, monthErr = src.Chart(ctx, symbol, now.AddDate(0, -a.cfg.MonthlyLookbackMonths, 0), now, a.cfg.MonthlyInterval)
		}()
		wg.Wait()

		if intraErr != nil {
			return priceResult{}, intraErr
		}
		if monthErr != nil {
			return priceResult{}, monthErr
		}

		bars := intraday.Bars
		bars.SortNewestFirst()
		bars = bars.Head(a.cfg.IntradayLimit)
		monthBars := monthly.Bars
		monthBars.SortNewestFirst()

		var lastClose float64
		if latest, ok := bars.Latest(); ok {
			lastClose = latest.Close
		}
		return priceResult{
			intraday:     bars,
			monthly:      monthBars,
			displayPrice: intraday.Meta.DisplayPrice(lastClose),
			marketState:  intraday.Meta.MarketState,
		}, nil
	}
}

func (a *Aggregator) fetchNews(ctx context.Context, symbol string) []types.NewsItem {
	if a.news == nil {
		return nil
	}
	items, err := a.news.RecentNews(ctx, symbol)
	if err != nil {
		logger.Warn(ctx, "News unavailable, continuing without headlines", "symbol", symbol, "error", err)
		return nil
	}
	return items
}

func (a *Aggregator) fetchSentiment(ctx context.Context) *types.SentimentSnapshot {
	if a.charts == nil || a.cfg.VolatilitySymbol == "" {
		return nil
	}
	vix, err := a.charts.VolatilityIndex(ctx, a.cfg.VolatilitySymbol)
	if err != nil {
		logger.Warn(ctx, "Volatility index unavailable, continuing without sentiment", "symbol", a.cfg.VolatilitySymbol, "error", err)
		return nil
	}
	if math.IsNaN(vix) || math.IsInf(vix, 0) || vix < 0 {
		logger.Warn(ctx, "Volatility index reading rejected, continuing without sentiment", "symbol", a.cfg.VolatilitySymbol, "value", vix)
		return nil
	}
	snap := sentiment.Snapshot(vix)
	return &snap
}
