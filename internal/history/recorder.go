// Package history persists completed analyses.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ai-stock-analyst/internal/types"
)

// Record is one stored analysis.
type Record struct {
	ID            string         `json:"id"`
	Symbol        string         `json:"symbol"`
	Timestamp     time.Time      `json:"timestamp"`
	Decision      types.Decision `json:"decision"`
	Confidence    int            `json:"confidence"`
	CurrentPrice  float64        `json:"currentPrice"`
	ExpectedPrice float64        `json:"expectedPrice"`
	Reason        string         `json:"reason"`
	Language      string         `json:"language"`
}

// FromReport builds a record with a fresh id.
func FromReport(r *types.AnalysisReport) Record {
	return Record{
		ID:            uuid.NewString(),
		Symbol:        r.Symbol,
		Timestamp:     r.GeneratedAt,
		Decision:      r.Result.Decision,
		Confidence:    r.Result.Confidence,
		CurrentPrice:  r.CurrentPrice,
		ExpectedPrice: r.Result.ExpectedPrice,
		Reason:        r.Result.Reason,
		Language:      r.Language,
	}
}

// Recorder stores and lists analyses. Recent returns newest first; an
// empty symbol matches every symbol.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Recent(ctx context.Context, symbol string, limit int) ([]Record, error)
	Close() error
}
