package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig configures one upstream HTTP provider.
type ProviderConfig struct {
	Enabled           bool    `yaml:"enabled"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Timeout returns the request timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type Config struct {
	Providers struct {
		Primary   ProviderConfig `yaml:"primary"`
		Secondary ProviderConfig `yaml:"secondary"`
	} `yaml:"providers"`
	Aggregator struct {
		IntradayInterval      string `yaml:"intraday_interval"`
		IntradayLookbackHours int    `yaml:"intraday_lookback_hours"`
		IntradayLimit         int    `yaml:"intraday_limit"`
		MonthlyInterval       string `yaml:"monthly_interval"`
		MonthlyLookbackMonths int    `yaml:"monthly_lookback_months"`
		PrimaryResolution     string `yaml:"primary_resolution"`
		VolatilitySymbol      string `yaml:"volatility_symbol"`
	} `yaml:"aggregator"`
	News struct {
		Enabled          bool   `yaml:"enabled"`
		FetchCount       int    `yaml:"fetch_count"`
		MaxItems         int    `yaml:"max_items"`
		MaxAgeHours      int    `yaml:"max_age_hours"`
		CacheSeconds     int    `yaml:"cache_seconds"`
		FallbackScrape   bool   `yaml:"fallback_scrape"`
		FallbackBaseURL  string `yaml:"fallback_base_url"`
		ScraperTimeoutMS int    `yaml:"scraper_timeout_ms"`
	} `yaml:"news"`
	LLM struct {
		Provider         string  `yaml:"provider"`
		Endpoint         string  `yaml:"endpoint"`
		Model            string  `yaml:"model"`
		MaxTokens        int     `yaml:"max_tokens"`
		Temperature      float32 `yaml:"temperature"`
		TimeoutSeconds   int     `yaml:"timeout_seconds"`
		InputPricePer1K  float64 `yaml:"input_price_per_1k"`
		OutputPricePer1K float64 `yaml:"output_price_per_1k"`
		StrictConfidence bool    `yaml:"strict_confidence"`
		System           string  `yaml:"system"`
	} `yaml:"llm"`
	Translation struct {
		Enabled              bool    `yaml:"enabled"`
		Endpoint             string  `yaml:"endpoint"`
		Region               string  `yaml:"region"`
		TimeoutSeconds       int     `yaml:"timeout_seconds"`
		PricePerMillionChars float64 `yaml:"price_per_million_chars"`
		CacheBackend         string  `yaml:"cache_backend"`
		CacheCapacity        int     `yaml:"cache_capacity"`
		Redis                struct {
			Addr       string `yaml:"addr"`
			DB         int    `yaml:"db"`
			TTLMinutes int    `yaml:"ttl_minutes"`
			KeyPrefix  string `yaml:"key_prefix"`
		} `yaml:"redis"`
	} `yaml:"translation"`
	Analysis struct {
		DefaultLanguage string `yaml:"default_language"`
		TranslateReason bool   `yaml:"translate_reason"`
	} `yaml:"analysis"`
	Search struct {
		Limit int `yaml:"limit"`
	} `yaml:"search"`
	History struct {
		Backend       string `yaml:"backend"`
		SQLitePath    string `yaml:"sqlite_path"`
		JSONLDir      string `yaml:"jsonl_dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"history"`
	Watch struct {
		Cron     string   `yaml:"cron"`
		Symbols  []string `yaml:"symbols"`
		Language string   `yaml:"language"`
	} `yaml:"watch"`
	Server struct {
		Addr           string `yaml:"addr"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
	} `yaml:"server"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := base()
	c.applyDefaults()
	return c
}

// base sets the switches that default to on, since YAML cannot tell an
// omitted bool from false.
func base() *Config {
	c := &Config{}
	c.Providers.Primary.Enabled = true
	c.Providers.Secondary.Enabled = true
	c.News.Enabled = true
	return c
}

func (c *Config) applyDefaults() {
	p := &c.Providers.Primary
	if p.BaseURL == "" {
		p.BaseURL = "https://finnhub.io/api/v1"
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 30
	}
	if p.RequestsPerSecond == 0 {
		p.RequestsPerSecond = 1
	}
	if p.Burst == 0 {
		p.Burst = 5
	}

	s := &c.Providers.Secondary
	if s.BaseURL == "" {
		s.BaseURL = "https://query2.finance.yahoo.com"
	}
	if s.TimeoutSeconds == 0 {
		s.TimeoutSeconds = 30
	}
	if s.RequestsPerSecond == 0 {
		s.RequestsPerSecond = 2
	}
	if s.Burst == 0 {
		s.Burst = 5
	}

	a := &c.Aggregator
	if a.IntradayInterval == "" {
		a.IntradayInterval = "15m"
	}
	if a.IntradayLookbackHours == 0 {
		a.IntradayLookbackHours = 72
	}
	if a.IntradayLimit == 0 {
		a.IntradayLimit = 30
	}
	if a.MonthlyInterval == "" {
		a.MonthlyInterval = "1d"
	}
	if a.MonthlyLookbackMonths == 0 {
		a.MonthlyLookbackMonths = 1
	}
	if a.PrimaryResolution == "" {
		a.PrimaryResolution = "D"
	}
	if a.VolatilitySymbol == "" {
		a.VolatilitySymbol = "^VIX"
	}

	n := &c.News
	if n.FetchCount == 0 {
		n.FetchCount = 20
	}
	if n.MaxItems == 0 {
		n.MaxItems = 8
	}
	if n.MaxAgeHours == 0 {
		n.MaxAgeHours = 48
	}
	if n.FallbackBaseURL == "" {
		n.FallbackBaseURL = "https://news.google.com"
	}
	if n.ScraperTimeoutMS == 0 {
		n.ScraperTimeoutMS = 15000
	}

	l := &c.LLM
	if l.Provider == "" {
		l.Provider = "openai"
	}
	if l.Provider == "openai" {
		if l.Endpoint == "" {
			l.Endpoint = "https://api.openai.com/v1"
		}
		if l.Model == "" {
			l.Model = "gpt-4-turbo-preview"
		}
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 4000
	}
	if l.Temperature == 0 {
		l.Temperature = 0.7
	}
	if l.TimeoutSeconds == 0 {
		l.TimeoutSeconds = 60
	}
	if l.InputPricePer1K == 0 {
		l.InputPricePer1K = 0.01
	}
	if l.OutputPricePer1K == 0 {
		l.OutputPricePer1K = 0.03
	}

	t := &c.Translation
	if t.Endpoint == "" {
		t.Endpoint = "https://api.cognitive.microsofttranslator.com"
	}
	if t.Region == "" {
		t.Region = "eastus"
	}
	if t.TimeoutSeconds == 0 {
		t.TimeoutSeconds = 15
	}
	if t.PricePerMillionChars == 0 {
		t.PricePerMillionChars = 10
	}
	if t.CacheBackend == "" {
		t.CacheBackend = "memory"
	}
	if t.Redis.Addr == "" {
		t.Redis.Addr = "localhost:6379"
	}
	if t.Redis.KeyPrefix == "" {
		t.Redis.KeyPrefix = "translate:"
	}

	if c.Analysis.DefaultLanguage == "" {
		c.Analysis.DefaultLanguage = "en"
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = 10
	}
	if c.History.Backend == "" {
		c.History.Backend = "sqlite"
	}
	if c.History.SQLitePath == "" {
		c.History.SQLitePath = "data/history.db"
	}
	if c.History.JSONLDir == "" {
		c.History.JSONLDir = "data/history"
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = "0 */15 * * * *"
	}
	if c.Watch.Language == "" {
		c.Watch.Language = c.Analysis.DefaultLanguage
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *Config) Validate() error {
	if !c.Providers.Primary.Enabled && !c.Providers.Secondary.Enabled {
		return errors.New("at least one of providers.primary or providers.secondary must be enabled")
	}
	if c.Aggregator.IntradayLimit < 1 {
		return fmt.Errorf("aggregator.intraday_limit must be positive, got %d", c.Aggregator.IntradayLimit)
	}
	if c.News.MaxItems < 0 {
		return fmt.Errorf("news.max_items cannot be negative, got %d", c.News.MaxItems)
	}
	switch c.LLM.Provider {
	case "openai", "claude", "noop":
	default:
		return fmt.Errorf("llm.provider must be 'openai', 'claude' or 'noop', got '%s'", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Translation.CacheBackend != "memory" && c.Translation.CacheBackend != "redis" {
		return fmt.Errorf("translation.cache_backend must be 'memory' or 'redis', got '%s'", c.Translation.CacheBackend)
	}
	if c.Translation.CacheCapacity < 0 {
		return fmt.Errorf("translation.cache_capacity cannot be negative, got %d", c.Translation.CacheCapacity)
	}
	switch c.History.Backend {
	case "sqlite", "jsonl", "none":
	default:
		return fmt.Errorf("history.backend must be 'sqlite', 'jsonl' or 'none', got '%s'", c.History.Backend)
	}
	return nil
}

// LoadConfig reads a YAML config. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	c := base()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
