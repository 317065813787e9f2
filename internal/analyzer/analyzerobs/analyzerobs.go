package analyzerobs

import (
	"context"
	"time"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/trace"
	"ai-stock-analyst/internal/types"
)

type observableAnalyzer struct {
	analyzer interfaces.Analyzer
}

var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

func Wrap(a interfaces.Analyzer) interfaces.Analyzer {
	return &observableAnalyzer{
		analyzer: a,
	}
}

func (oa *observableAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	ctx, span := trace.StartSpan(ctx, "analyzer.Analyze")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting analysis",
		"symbol", req.Symbol,
		"language", req.Language,
	)

	report, err := oa.analyzer.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis failed", err,
			"symbol", req.Symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Analysis completed",
		"symbol", report.Symbol,
		"decision", report.Result.Decision,
		"confidence", report.Result.Confidence,
		"source", report.Source,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}
