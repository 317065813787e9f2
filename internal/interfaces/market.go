package interfaces

import (
	"context"
	"time"

	"ai-stock-analyst/internal/types"
)

// QuoteSource is the primary market data provider.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (types.Quote, error)
	Candles(ctx context.Context, symbol string, from, to time.Time, resolution string) (types.SeriesWindow, error)
}

// ChartSource is the secondary market data provider.
type ChartSource interface {
	Chart(ctx context.Context, symbol string, from, to time.Time, interval string) (types.Chart, error)
	VolatilityIndex(ctx context.Context, symbol string) (float64, error)
}

// NewsSource returns recent headlines for a symbol.
type NewsSource interface {
	RecentNews(ctx context.Context, symbol string) ([]types.NewsItem, error)
}

// SymbolSearcher returns autocomplete matches for a partial query.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string, limit int) ([]types.SymbolMatch, error)
}

// Aggregator builds a market snapshot for one symbol.
type Aggregator interface {
	Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error)
}
