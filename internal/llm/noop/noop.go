package noop

import (
	"context"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/types"
)

// Reason is the fixed explanation attached to every noop result.
const Reason = "No language model is configured, so no analysis was performed."

// Analyst is used when no model is configured. It answers NEUTRAL with
// minimum confidence and echoes nothing from the payload.
type Analyst struct{}

var _ interfaces.Analyst = (*Analyst)(nil)

func New() *Analyst {
	return &Analyst{}
}

func (a *Analyst) Analyze(ctx context.Context, payload []byte, language string) (types.AnalysisResult, error) {
	logger.Debug(ctx, "Noop analyst called - always returns NEUTRAL", "payload_bytes", len(payload))
	return types.AnalysisResult{
		Decision:   types.Neutral,
		Confidence: 1,
		Reason:     Reason,
	}, nil
}
