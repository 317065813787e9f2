package interfaces

import (
	"context"

	"ai-stock-analyst/internal/types"
)

// Analyst turns a compact market payload into a directional call.
type Analyst interface {
	Analyze(ctx context.Context, payload []byte, language string) (types.AnalysisResult, error)
}

// Translator converts text between language codes.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
	BatchTranslate(ctx context.Context, texts []string, from, to string) ([]string, error)
}

// Analyzer runs the full fetch, analyze and translate pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error)
}
