// Package scheduler runs the watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"ai-stock-analyst/internal/analyzer"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/types"
)

// ReportFunc receives each finished watchlist analysis.
type ReportFunc func(*types.AnalysisReport)

// Scheduler analyzes every watched symbol on each tick.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer interfaces.Analyzer
	Symbols  []string
	Language string
	OnReport ReportFunc
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a scheduler whose specs include a seconds field.
func NewScheduler(ctx context.Context, a interfaces.Analyzer, symbols []string, language string, onReport ReportFunc) *Scheduler {
	clean := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			clean = append(clean, s)
		}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: a,
		Symbols:  clean,
		Language: language,
		OnReport: onReport,
		Ctx:      ctx,
	}
}

// Register adds the watchlist task.
func (s *Scheduler) Register(spec string) error {
	if len(s.Symbols) == 0 {
		return fmt.Errorf("register watch task: no symbols configured")
	}
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info(s.Ctx, "Scheduler started", "symbols", s.Symbols)
}

// Stop stops the cron and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info(s.Ctx, "Scheduler stopped")
}

// RunNow analyzes the watchlist once. A tick that fires while the
// previous one is still running is skipped.
func (s *Scheduler) RunNow() {
	if !s.running.TryLock() {
		logger.Warn(s.Ctx, "Previous watch run still in progress, skipping tick")
		return
	}
	defer s.running.Unlock()

	op := logger.StartOperation(s.Ctx, "watch.run", "symbols", len(s.Symbols))
	ctx := op.GetContext()
	failed := 0
	for _, sym := range s.Symbols {
		if ctx.Err() != nil {
			op.EndWithError(ctx.Err(), "failed", failed)
			return
		}
		report, err := s.Analyzer.Analyze(ctx, types.AnalysisRequest{Symbol: sym, Language: s.Language})
		if err != nil {
			failed++
			logger.Error(ctx, "Watch analysis failed", "symbol", sym, "message", analyzer.UserMessage(err), "error", err)
			continue
		}
		if s.OnReport != nil {
			s.OnReport(report)
		}
	}
	op.End("failed", failed)
}
