package analyzer

import (
	"context"
	"errors"

	"ai-stock-analyst/internal/llm/claude"
	"ai-stock-analyst/internal/llm/openai"
	"ai-stock-analyst/internal/translate"
	"ai-stock-analyst/internal/types"
)

// UserMessage turns a pipeline error into a short message for end users.
func UserMessage(err error) string {
	var (
		apiErr    *openai.APIError
		claudeErr *claude.APIError
		provErr   *types.ProviderError
		trErr     *translate.ProviderTranslationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Request was cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, types.ErrInvalidSymbol):
		return "Invalid stock symbol"
	case errors.Is(err, types.ErrNoDataAvailable):
		return "No data available for this stock"
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "OpenAI API Error: " + apiErr.Message
		}
		return "OpenAI API Error: " + apiErr.Error()
	case errors.As(err, &claudeErr):
		if claudeErr.Message != "" {
			return "Claude API Error: " + claudeErr.Message
		}
		return "Claude API Error: " + claudeErr.Error()
	case errors.Is(err, types.ErrMalformedAnalysis):
		return "The analysis response could not be understood"
	case errors.As(err, &trErr):
		return trErr.Error()
	case errors.Is(err, types.ErrInvalidResponse):
		return "Invalid response from server"
	case errors.Is(err, types.ErrNetwork):
		return "Network connection error"
	case errors.As(err, &provErr):
		if provErr.Message != "" {
			return provErr.Message
		}
		return "Invalid response from server"
	default:
		return err.Error()
	}
}
