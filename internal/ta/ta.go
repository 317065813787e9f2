// Package ta computes classic indicators over closing prices. The slice
// functions expect oldest-first input; Summarize takes a newest-first window.
package ta

import (
	"math"

	"ai-stock-analyst/internal/types"
)

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// RSI is the simple-average relative strength index over the last period changes.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := gain / loss
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	return mid, mid + k*sd, mid - k*sd
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		sum += tr
	}
	return sum / float64(period)
}

// Summary is the indicator block shown beside a report. Fields are nil
// when the window is too short for them.
type Summary struct {
	Bars           int      `json:"bars"`
	SMA5           *float64 `json:"sma_5,omitempty"`
	SMA20          *float64 `json:"sma_20,omitempty"`
	RSI14          *float64 `json:"rsi_14,omitempty"`
	BollingerUpper *float64 `json:"bollinger_upper,omitempty"`
	BollingerLower *float64 `json:"bollinger_lower,omitempty"`
	ATR14          *float64 `json:"atr_14,omitempty"`
}

// Summarize computes the summary for a newest-first window.
func Summarize(w types.SeriesWindow) Summary {
	n := len(w)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range w {
		j := n - 1 - i
		highs[j], lows[j], closes[j] = b.High, b.Low, b.Close
	}

	_, up, low := Bollinger(closes, 20, 2)
	return Summary{
		Bars:           n,
		SMA5:           finite(SMA(closes, 5)),
		SMA20:          finite(SMA(closes, 20)),
		RSI14:          finite(RSI(closes, 14)),
		BollingerUpper: finite(up),
		BollingerLower: finite(low),
		ATR14:          finite(ATR(highs, lows, closes, 14)),
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Round(v*100) / 100
	return &v
}
