package noop

import (
	"context"
	"testing"

	"ai-stock-analyst/internal/types"
)

func TestAnalyzeIsNeutral(t *testing.T) {
	res, err := New().Analyze(context.Background(), []byte(`{"symbol":"AAPL"}`), "English")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Decision != types.Neutral {
		t.Errorf("Expected NEUTRAL, got %s", res.Decision)
	}
	if res.Confidence != 1 || res.ExpectedPrice != 0 {
		t.Errorf("Expected confidence 1 and no price, got %+v", res)
	}
}
