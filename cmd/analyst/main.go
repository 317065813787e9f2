package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ai-stock-analyst/internal/analyzer"
	"ai-stock-analyst/internal/httpapi"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/scheduler"
	"ai-stock-analyst/internal/ta"
	"ai-stock-analyst/internal/trace"
	"ai-stock-analyst/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	symbol := flag.String("symbol", "", "analyze one symbol and print the report")
	lang := flag.String("lang", "", "output language code, defaults to analysis.default_language")
	query := flag.String("search", "", "print symbol matches for a partial query")
	watch := flag.Bool("watch", false, "analyze watch.symbols on the watch.cron schedule")
	serve := flag.Bool("serve", false, "serve the HTTP API on server.addr")
	flag.Parse()

	must(initializeSystem())
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)

	a, err := buildApp(ctx, cfg)
	must(err)
	defer a.close(context.Background())

	switch {
	case *query != "":
		runSearch(ctx, a, *query)
	case *symbol != "":
		if !runOnce(ctx, a, *symbol, *lang) {
			a.close(context.Background())
			os.Exit(1)
		}
	case *watch || *serve:
		must(runServices(ctx, a, *watch, *serve))
	default:
		flag.Usage()
	}
}

func runSearch(ctx context.Context, a *app, query string) {
	matches, err := a.search.Search(ctx, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, analyzer.UserMessage(err))
		return
	}
	for _, m := range matches {
		fmt.Printf("%-10s %-8s %s\n", m.Symbol, m.Exchange, m.DisplayName())
	}
}

func runOnce(ctx context.Context, a *app, symbol, lang string) bool {
	report, err := a.analyzer.Analyze(ctx, types.AnalysisRequest{Symbol: symbol, Language: lang})
	if err != nil {
		fmt.Fprintln(os.Stderr, analyzer.UserMessage(err))
		return false
	}
	printReport(report)
	return true
}

func printReport(r *types.AnalysisReport) {
	out := struct {
		Symbol        string      `json:"symbol"`
		Decision      string      `json:"decision"`
		Confidence    int         `json:"confidence"`
		CurrentPrice  float64     `json:"current_price"`
		ExpectedPrice float64     `json:"expected_price"`
		Reason        string      `json:"reason"`
		Language      string      `json:"language"`
		Source        string      `json:"source"`
		Technicals    *ta.Summary `json:"technicals,omitempty"`
	}{
		Symbol:        r.Symbol,
		Decision:      r.DecisionLabel,
		Confidence:    r.Result.Confidence,
		CurrentPrice:  r.DisplayPrice,
		ExpectedPrice: r.Result.ExpectedPrice,
		Reason:        r.Result.Reason,
		Language:      r.Language,
		Source:        r.Source,
	}
	if r.Snapshot != nil {
		t := ta.Summarize(r.Snapshot.Monthly)
		out.Technicals = &t
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

// runServices runs the watch schedule and the HTTP API until ctx ends.
func runServices(ctx context.Context, a *app, watch, serve bool) error {
	g, ctx := errgroup.WithContext(ctx)

	if watch {
		s := scheduler.NewScheduler(ctx, a.analyzer, a.cfg.Watch.Symbols, a.cfg.Watch.Language, printReport)
		if err := s.Register(a.cfg.Watch.Cron); err != nil {
			return err
		}
		s.Start()
		logger.Info(ctx, "Watching symbols", "cron", a.cfg.Watch.Cron)
		g.Go(func() error {
			<-ctx.Done()
			s.Stop()
			return nil
		})
	}

	if serve {
		deps := httpapi.Deps{
			Analyzer:       a.analyzer,
			Search:         a.search,
			History:        a.history,
			Tokens:         a.tokens,
			MetricsEnabled: a.cfg.Server.MetricsEnabled,
		}
		if a.translator != nil {
			deps.Translator = a.translator
		}
		srv := httpapi.NewServer(a.cfg.Server.Addr, deps)
		g.Go(func() error { return srv.Run(ctx) })
	}

	return g.Wait()
}
