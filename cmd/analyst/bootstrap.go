package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"ai-stock-analyst/internal/aggregator"
	"ai-stock-analyst/internal/analyzer"
	"ai-stock-analyst/internal/analyzer/analyzerobs"
	"ai-stock-analyst/internal/history"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/llm/claude"
	"ai-stock-analyst/internal/llm/llmobs"
	"ai-stock-analyst/internal/llm/noop"
	"ai-stock-analyst/internal/llm/openai"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/news"
	"ai-stock-analyst/internal/provider/finnhub"
	"ai-stock-analyst/internal/provider/yahoo"
	"ai-stock-analyst/internal/search"
	"ai-stock-analyst/internal/store"
	"ai-stock-analyst/internal/trace"
	"ai-stock-analyst/internal/translate"
	"ai-stock-analyst/internal/usage"
)

// app holds every wired component.
type app struct {
	cfg        *store.Config
	analyzer   interfaces.Analyzer
	search     *search.Searcher
	translator *translate.Service
	history    history.Recorder
	tokens     *usage.TokenLedger
	redis      *redis.Client
}

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// buildApp wires providers, model, translator and history into the analyzer.
func buildApp(ctx context.Context, cfg *store.Config) (*app, error) {
	secrets := store.LoadSecrets()
	if cfg.Server.MetricsEnabled {
		metrics.Init()
	}

	yc := yahoo.NewClient(yahoo.Config{
		BaseURL:           cfg.Providers.Secondary.BaseURL,
		Timeout:           cfg.Providers.Secondary.Timeout(),
		RequestsPerSecond: cfg.Providers.Secondary.RequestsPerSecond,
		Burst:             cfg.Providers.Secondary.Burst,
	})

	agg := initializeAggregator(ctx, cfg, secrets, yc)

	tokens := usage.NewTokenLedger(cfg.LLM.InputPricePer1K, cfg.LLM.OutputPricePer1K)
	analyst, err := initializeAnalyst(ctx, cfg, secrets, tokens)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, tokens: tokens, search: search.New(yc, cfg.Search.Limit)}

	var translator interfaces.Translator
	if cfg.Translation.Enabled {
		svc, rdb, err := initializeTranslator(ctx, cfg, secrets)
		if err != nil {
			logger.Warn(ctx, "Translation disabled", "error", err)
		} else {
			a.translator, a.redis = svc, rdb
			translator = svc
		}
	}

	rec, err := initializeHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.history = rec

	a.analyzer = analyzerobs.Wrap(analyzer.New(analyzer.Config{
		DefaultLanguage: cfg.Analysis.DefaultLanguage,
		TranslateReason: cfg.Analysis.TranslateReason,
	}, agg, analyst, translator, rec))
	return a, nil
}

// initializeAggregator builds the price tiers. The primary tier needs an API key.
func initializeAggregator(ctx context.Context, cfg *store.Config, secrets store.Secrets, yc *yahoo.Client) *aggregator.Aggregator {
	var primary interfaces.QuoteSource
	if cfg.Providers.Primary.Enabled {
		if secrets.FinnhubAPIKey == "" {
			logger.Warn(ctx, "FINNHUB_API_KEY not set, using secondary provider only")
		} else {
			primary = finnhub.NewClient(finnhub.Config{
				BaseURL:           cfg.Providers.Primary.BaseURL,
				APIKey:            secrets.FinnhubAPIKey,
				Timeout:           cfg.Providers.Primary.Timeout(),
				RequestsPerSecond: cfg.Providers.Primary.RequestsPerSecond,
				Burst:             cfg.Providers.Primary.Burst,
			})
		}
	}

	var charts interfaces.ChartSource
	if cfg.Providers.Secondary.Enabled {
		charts = yc
	}

	var fallback news.Fallback
	if cfg.News.FallbackScrape {
		fallback = news.NewScraper(cfg.News.FallbackBaseURL, time.Duration(cfg.News.ScraperTimeoutMS)*time.Millisecond)
	}
	newsSvc := news.NewService(yc, fallback, &news.ServiceConfig{
		FetchCount:    cfg.News.FetchCount,
		MaxItems:      cfg.News.MaxItems,
		MaxAge:        time.Duration(cfg.News.MaxAgeHours) * time.Hour,
		CacheDuration: time.Duration(cfg.News.CacheSeconds) * time.Second,
		Enabled:       cfg.News.Enabled,
	})

	ac := cfg.Aggregator
	return aggregator.New(aggregator.Config{
		IntradayInterval:      ac.IntradayInterval,
		IntradayLookback:      time.Duration(ac.IntradayLookbackHours) * time.Hour,
		IntradayLimit:         ac.IntradayLimit,
		MonthlyInterval:       ac.MonthlyInterval,
		MonthlyLookbackMonths: ac.MonthlyLookbackMonths,
		PrimaryResolution:     ac.PrimaryResolution,
		VolatilitySymbol:      ac.VolatilitySymbol,
	}, primary, charts, newsSvc)
}

// initializeAnalyst returns the configured model client wrapped with observability
func initializeAnalyst(ctx context.Context, cfg *store.Config, secrets store.Secrets, tokens *usage.TokenLedger) (interfaces.Analyst, error) {
	lc := cfg.LLM
	timeout := time.Duration(lc.TimeoutSeconds) * time.Second

	var (
		analyst interfaces.Analyst
		err     error
	)
	switch lc.Provider {
	case "claude":
		analyst, err = claude.New(claude.Config{
			Endpoint:         lc.Endpoint,
			APIKey:           secrets.ClaudeAPIKey,
			Model:            lc.Model,
			MaxTokens:        lc.MaxTokens,
			Temperature:      lc.Temperature,
			Timeout:          timeout,
			StrictConfidence: lc.StrictConfidence,
			System:           lc.System,
		}, tokens)
	case "noop":
		logger.Warn(ctx, "No LLM provider configured - using Noop analyst (always NEUTRAL)")
		analyst = noop.New()
	default:
		analyst, err = openai.New(openai.Config{
			Endpoint:         lc.Endpoint,
			APIKey:           secrets.OpenAIAPIKey,
			Model:            lc.Model,
			MaxTokens:        lc.MaxTokens,
			Temperature:      lc.Temperature,
			Timeout:          timeout,
			StrictConfidence: lc.StrictConfidence,
			System:           lc.System,
		}, tokens)
	}
	if err != nil {
		return nil, err
	}
	return llmobs.Wrap(analyst), nil
}

func initializeTranslator(ctx context.Context, cfg *store.Config, secrets store.Secrets) (*translate.Service, *redis.Client, error) {
	tc := cfg.Translation

	var (
		cache translate.Store
		rdb   *redis.Client
	)
	switch tc.CacheBackend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     tc.Redis.Addr,
			Password: secrets.RedisPassword,
			DB:       tc.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", tc.Redis.Addr, err)
		}
		cache = translate.NewRedisStore(rdb, tc.Redis.KeyPrefix, time.Duration(tc.Redis.TTLMinutes)*time.Minute)
		logger.Info(ctx, "Using Redis translation cache", "addr", tc.Redis.Addr)
	default:
		cache = translate.NewMemoryStore(tc.CacheCapacity)
	}

	region := tc.Region
	if secrets.TranslatorRegion != "" {
		region = secrets.TranslatorRegion
	}
	svc, err := translate.New(translate.Config{
		Endpoint: tc.Endpoint,
		APIKey:   secrets.TranslatorKey,
		Region:   region,
		Timeout:  time.Duration(tc.TimeoutSeconds) * time.Second,
	}, cache, usage.NewCharacterLedger(tc.PricePerMillionChars))
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	return svc, rdb, nil
}

func initializeHistory(ctx context.Context, cfg *store.Config) (history.Recorder, error) {
	switch cfg.History.Backend {
	case "sqlite":
		rec, err := history.NewSQLiteRecorder(cfg.History.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		logger.Info(ctx, "Recording history to SQLite", "path", cfg.History.SQLitePath)
		return rec, nil
	case "jsonl":
		rec, err := history.NewJSONLRecorder(cfg.History.JSONLDir, cfg.History.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("open history dir: %w", err)
		}
		if err := rec.CompressOlder(); err != nil {
			logger.Warn(ctx, "Failed to compress old history files", "error", err)
		}
		logger.Info(ctx, "Recording history to JSONL", "dir", cfg.History.JSONLDir)
		return rec, nil
	default:
		return history.NewNoopRecorder(), nil
	}
}

// close releases stores and prints cost summaries.
func (a *app) close(ctx context.Context) {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Warn(ctx, "Failed to close history", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}

	logger.Usage(ctx, "llm", a.tokens.Summary())
	fmt.Println(a.tokens.Summary())
	if a.translator != nil {
		logger.Usage(ctx, "translation", a.translator.Ledger().Summary())
		fmt.Println(a.translator.Ledger().Summary())
	}
}
