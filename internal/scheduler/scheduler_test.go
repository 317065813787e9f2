package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-stock-analyst/internal/types"
)

type countingAnalyzer struct {
	mu      sync.Mutex
	symbols []string
	fail    map[string]bool
}

func (c *countingAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	c.mu.Lock()
	c.symbols = append(c.symbols, req.Symbol)
	c.mu.Unlock()
	if c.fail[req.Symbol] {
		return nil, errors.New("upstream down")
	}
	return &types.AnalysisReport{Symbol: req.Symbol, Language: req.Language}, nil
}

func (c *countingAnalyzer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.symbols)
}

func TestRunNowAnalyzesEverySymbol(t *testing.T) {
	a := &countingAnalyzer{fail: map[string]bool{"MSFT": true}}
	var reports []*types.AnalysisReport
	s := NewScheduler(context.Background(), a, []string{" aapl", "MSFT", "", "nvda"}, "ko", func(r *types.AnalysisReport) {
		reports = append(reports, r)
	})

	s.RunNow()

	if a.count() != 3 {
		t.Errorf("Expected 3 analyses, got %d", a.count())
	}
	if len(reports) != 2 || reports[0].Symbol != "AAPL" || reports[1].Symbol != "NVDA" {
		t.Errorf("Expected AAPL and NVDA reports, got %+v", reports)
	}
	if reports[0].Language != "ko" {
		t.Errorf("Expected language ko, got %s", reports[0].Language)
	}
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &countingAnalyzer{}, []string{"AAPL"}, "en", nil)
	if err := s.Register("not a cron"); err == nil {
		t.Error("Expected error for invalid spec")
	}
}

func TestRegisterRequiresSymbols(t *testing.T) {
	s := NewScheduler(context.Background(), &countingAnalyzer{}, nil, "en", nil)
	if err := s.Register("*/1 * * * * *"); err == nil {
		t.Error("Expected error for empty watchlist")
	}
}

func TestCronTriggersRun(t *testing.T) {
	a := &countingAnalyzer{}
	s := NewScheduler(context.Background(), a, []string{"AAPL"}, "en", nil)
	if err := s.Register("* * * * * *"); err != nil {
		t.Fatalf("Expected register to succeed, got %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for a.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if a.count() == 0 {
		t.Error("Expected cron to trigger at least one run")
	}
}

func TestRunNowStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &countingAnalyzer{}
	NewScheduler(ctx, a, []string{"AAPL", "MSFT"}, "en", nil).RunNow()
	if a.count() != 0 {
		t.Errorf("Expected no analyses after cancel, got %d", a.count())
	}
}
