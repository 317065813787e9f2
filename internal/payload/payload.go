// Package payload compacts a market snapshot into the column-oriented
// document the analyst model reads.
package payload

import (
	"encoding/json"
	"math"
	"time"

	"ai-stock-analyst/internal/types"
)

const (
	intradayLayout = "2006-01-02 15:04"
	dailyLayout    = "2006-01-02"
)

// Truncate2 is floor(x*100)/100 on the binary product, so 0.29 becomes 0.28.
func Truncate2(x float64) float64 {
	return math.Floor(x*100) / 100
}

// Truncate4 is floor(x*10000)/10000.
func Truncate4(x float64) float64 {
	return math.Floor(x*10000) / 10000
}

// Compact builds the payload. Intraday rows carry minute timestamps and
// monthly rows carry dates, rendered in loc or in each bar's own location
// when loc is nil. The current price is the close of the most recent
// intraday bar. A missing sentiment reading is sent as zeros.
func Compact(s *types.MarketSnapshot, loc *time.Location) types.CompactPayload {
	p := types.CompactPayload{
		Columns: append([]string(nil), types.PayloadColumns...),
		Data: types.PayloadSeries{
			Daily:   rows(s.Intraday, intradayLayout, loc),
			Monthly: rows(s.Monthly, dailyLayout, loc),
		},
		News: make([]types.PayloadNews, 0, len(s.News)),
	}
	if latest, ok := s.Intraday.Latest(); ok {
		p.CurrentPrice = Truncate2(latest.Close)
	}
	for _, n := range s.News {
		p.News = append(p.News, types.PayloadNews{Title: n.Title})
	}
	if s.Sentiment != nil {
		p.MarketSentiment = types.PayloadSentiment{
			VIX:               Truncate2(s.Sentiment.VIX),
			FearAndGreedIndex: Truncate2(s.Sentiment.FearAndGreedIndex),
		}
	}
	return p
}

func rows(bars types.SeriesWindow, layout string, loc *time.Location) [][]types.Cell {
	out := make([][]types.Cell, 0, len(bars))
	for _, b := range bars {
		ts := b.Time
		if loc != nil {
			ts = ts.In(loc)
		}
		out = append(out, []types.Cell{
			types.StringCell(ts.Format(layout)),
			types.NumberCell(Truncate4(b.Open)),
			types.NumberCell(Truncate4(b.Close)),
			types.NumberCell(Truncate4(b.High)),
			types.NumberCell(Truncate4(b.Low)),
			types.IntegerCell(b.Volume),
		})
	}
	return out
}

// Encode serializes the payload as compact JSON.
func Encode(p types.CompactPayload) ([]byte, error) {
	return json.Marshal(p)
}
