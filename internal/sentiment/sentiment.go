// Package sentiment derives market mood readings from the volatility index.
package sentiment

import (
	"math"

	"ai-stock-analyst/internal/types"
)

// DeriveFearGreed maps a VIX reading onto a 0..100 fear and greed scale.
// A VIX of 50 or more is extreme fear (0); 10 or less is extreme greed (100).
func DeriveFearGreed(vix float64) float64 {
	return math.Max(0, math.Min(100, (50-vix)*2.5))
}

// Snapshot builds the sentiment block for a VIX reading.
func Snapshot(vix float64) types.SentimentSnapshot {
	return types.SentimentSnapshot{VIX: vix, FearAndGreedIndex: DeriveFearGreed(vix)}
}

type Mood string

const (
	Stable       Mood = "Stable"
	Normal       Mood = "Normal"
	Unstable     Mood = "Unstable"
	ExtremeFear  Mood = "Extreme Fear"
	Fear         Mood = "Fear"
	NeutralMood  Mood = "Neutral"
	Greed        Mood = "Greed"
	ExtremeGreed Mood = "Extreme Greed"
)

// VIXMood buckets the volatility index for display.
func VIXMood(vix float64) Mood {
	switch {
	case vix < 20:
		return Stable
	case vix < 30:
		return Normal
	default:
		return Unstable
	}
}

// FearGreedMood buckets the fear and greed index for display.
func FearGreedMood(index float64) Mood {
	switch {
	case index < 25:
		return ExtremeFear
	case index < 45:
		return Fear
	case index < 55:
		return NeutralMood
	case index < 75:
		return Greed
	default:
		return ExtremeGreed
	}
}
