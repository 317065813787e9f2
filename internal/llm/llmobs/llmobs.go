package llmobs

import (
	"context"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/trace"
	"ai-stock-analyst/internal/types"
)

// observableAnalyst wraps an Analyst with observability (logging & tracing)
type observableAnalyst struct {
	analyst interfaces.Analyst
}

// Compile-time interface check
var _ interfaces.Analyst = (*observableAnalyst)(nil)

// Wrap wraps an analyst with observability middleware
func Wrap(analyst interfaces.Analyst) interfaces.Analyst {
	return &observableAnalyst{
		analyst: analyst,
	}
}

// Analyze requests an analysis with observability
func (oa *observableAnalyst) Analyze(ctx context.Context, payload []byte, language string) (types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Analyze")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting analysis",
		"language", language,
		"payloadBytes", len(payload),
	)

	result, err := oa.analyst.Analyze(ctx, payload, language)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get analysis", err,
			"language", language,
		)
		return types.AnalysisResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Analysis received",
		"decision", result.Decision,
		"confidence", result.Confidence,
		"expectedPrice", result.ExpectedPrice,
	)

	return result, nil
}
