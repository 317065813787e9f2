package types

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is a single OHLCV sample.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NewBar builds a Bar and rejects samples whose range does not contain
// the open and close, or that carry non-finite values.
func NewBar(ts time.Time, open, high, low, close float64, volume int64) (Bar, error) {
	for _, v := range []float64{open, high, low, close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Bar{}, fmt.Errorf("%w: non-finite price at %s", ErrInvalidBar, ts.Format(time.RFC3339))
		}
	}
	if volume < 0 {
		return Bar{}, fmt.Errorf("%w: negative volume %d", ErrInvalidBar, volume)
	}
	if low > high || open < low || open > high || close < low || close > high {
		return Bar{}, fmt.Errorf("%w: o=%.4f h=%.4f l=%.4f c=%.4f", ErrInvalidBar, open, high, low, close)
	}
	return Bar{Time: ts, Open: open, High: high, Low: low, Close: close, Volume: volume}, nil
}

// SeriesWindow is an ordered bar sequence, newest first.
type SeriesWindow []Bar

// Latest returns the most recent bar.
func (w SeriesWindow) Latest() (Bar, bool) {
	if len(w) == 0 {
		return Bar{}, false
	}
	return w[0], true
}

// Head returns at most n bars from the front of the window.
func (w SeriesWindow) Head(n int) SeriesWindow {
	if n < 0 || len(w) <= n {
		return w
	}
	return w[:n]
}

// SortNewestFirst orders the window by descending time in place.
func (w SeriesWindow) SortNewestFirst() {
	sort.SliceStable(w, func(i, j int) bool { return w[i].Time.After(w[j].Time) })
}

// Quote is a point-in-time price snapshot from the primary provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Current       float64   `json:"current"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	PreviousClose float64   `json:"previous_close"`
	Time          time.Time `json:"time"`
}

// Bar synthesizes a single bar from the quote. The day range is widened
// to cover open and current when the upstream range is stale.
func (q Quote) Bar() Bar {
	return Bar{
		Time:  q.Time,
		Open:  q.Open,
		High:  math.Max(q.High, math.Max(q.Open, q.Current)),
		Low:   math.Min(q.Low, math.Min(q.Open, q.Current)),
		Close: q.Current,
	}
}

// ChartMeta carries the descriptive block of a chart response.
type ChartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency,omitempty"`
	ExchangeName       string   `json:"exchange_name,omitempty"`
	MarketState        string   `json:"market_state,omitempty"`
	RegularMarketPrice *float64 `json:"regular_market_price,omitempty"`
	PreMarketPrice     *float64 `json:"pre_market_price,omitempty"`
	PostMarketPrice    *float64 `json:"post_market_price,omitempty"`
	PreviousClose      *float64 `json:"previous_close,omitempty"`
}

// DisplayPrice picks the price matching the current trading session and
// falls back to the given last close.
func (m ChartMeta) DisplayPrice(lastClose float64) float64 {
	switch m.MarketState {
	case "POST", "POSTPOST":
		if m.PostMarketPrice != nil {
			return *m.PostMarketPrice
		}
	case "PRE", "PREPRE":
		if m.PreMarketPrice != nil {
			return *m.PreMarketPrice
		}
	}
	if m.RegularMarketPrice != nil {
		return *m.RegularMarketPrice
	}
	return lastClose
}

// Chart is a decoded chart response.
type Chart struct {
	Meta ChartMeta    `json:"meta"`
	Bars SeriesWindow `json:"bars"`
}

// NewsItem is a headline attached to the analysis payload.
type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Age         string    `json:"age"`
}

// SentimentSnapshot is the market-wide volatility reading.
type SentimentSnapshot struct {
	VIX               float64 `json:"vix"`
	FearAndGreedIndex float64 `json:"fear_and_greed_index"`
}

// MarketSnapshot is everything the aggregator gathers for one symbol.
type MarketSnapshot struct {
	Symbol       string             `json:"symbol"`
	Intraday     SeriesWindow       `json:"intraday"`
	Monthly      SeriesWindow       `json:"monthly"`
	News         []NewsItem         `json:"news"`
	Sentiment    *SentimentSnapshot `json:"sentiment,omitempty"`
	Source       string             `json:"source"`
	DisplayPrice float64            `json:"display_price"`
	MarketState  string             `json:"market_state,omitempty"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// SymbolMatch is one autocomplete result.
type SymbolMatch struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"short_name,omitempty"`
	LongName  string `json:"long_name,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	QuoteType string `json:"quote_type,omitempty"`
}

// DisplayName prefers the long company name.
func (m SymbolMatch) DisplayName() string {
	if m.LongName != "" {
		return m.LongName
	}
	if m.ShortName != "" {
		return m.ShortName
	}
	return m.Symbol
}

// AnalysisRequest names the symbol to analyze and the output language code.
type AnalysisRequest struct {
	Symbol   string `json:"symbol"`
	Language string `json:"language"`
}

// AnalysisReport is the end result of one analysis pass.
type AnalysisReport struct {
	Symbol        string          `json:"symbol"`
	Language      string          `json:"language"`
	Result        AnalysisResult  `json:"result"`
	DecisionLabel string          `json:"decision_label"`
	CurrentPrice  float64         `json:"current_price"`
	DisplayPrice  float64         `json:"display_price"`
	Source        string          `json:"source"`
	Snapshot      *MarketSnapshot `json:"snapshot,omitempty"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
