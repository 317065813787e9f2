package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/types"
)

// Fetcher is the primary headline source.
type Fetcher interface {
	News(ctx context.Context, symbol string, count int) ([]types.NewsItem, error)
}

// Fallback is consulted when the primary source fails or returns nothing.
type Fallback interface {
	Headlines(ctx context.Context, symbol string, max int) ([]types.NewsItem, error)
}

// Service returns recent, age-labelled headlines with caching
type Service struct {
	primary  Fetcher
	fallback Fallback
	cache    *newsCache
	cfg      *ServiceConfig
	now      func() time.Time
}

var _ interfaces.NewsSource = (*Service)(nil)

// ServiceConfig configures the news service
type ServiceConfig struct {
	FetchCount    int           // Headlines requested upstream
	MaxItems      int           // Headlines kept after filtering
	MaxAge        time.Duration // Older headlines are dropped
	CacheDuration time.Duration // How long raw upstream results are reused, 0 disables
	Enabled       bool          // Whether news is fetched at all
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		FetchCount:    20,
		MaxItems:      8,
		MaxAge:        48 * time.Hour,
		CacheDuration: 5 * time.Minute,
		Enabled:       true,
	}
}

// newsCache stores raw upstream headlines temporarily
type newsCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	items     []types.NewsItem
	timestamp time.Time
}

func newNewsCache(ttl time.Duration) *newsCache {
	return &newsCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

// get retrieves cached headlines if still fresh
func (c *newsCache) get(symbol string) ([]types.NewsItem, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.items, true
}

// set stores headlines in cache, evicting expired entries first
func (c *newsCache) set(symbol string, items []types.NewsItem) {
	if c.ttl <= 0 {
		return
	}
	c.cleanup()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = &cacheEntry{items: items, timestamp: time.Now()}
}

// cleanup removes expired entries
func (c *newsCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates a news service. fallback may be nil.
func NewService(primary Fetcher, fallback Fallback, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		cache:    newNewsCache(cfg.CacheDuration),
		cfg:      cfg,
		now:      time.Now,
	}
}

// RecentNews returns at most MaxItems headlines younger than MaxAge,
// newest first, each labelled with its age at call time.
func (s *Service) RecentNews(ctx context.Context, symbol string) ([]types.NewsItem, error) {
	if !s.cfg.Enabled {
		return nil, nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	raw, ok := s.cache.get(symbol)
	if ok {
		logger.Debug(ctx, "Using cached headlines", "symbol", symbol, "count", len(raw))
	} else {
		var err error
		raw, err = s.fetch(ctx, symbol)
		if err != nil {
			return nil, err
		}
		s.cache.set(symbol, raw)
	}

	return Filter(raw, s.now(), s.cfg.MaxAge, s.cfg.MaxItems), nil
}

func (s *Service) fetch(ctx context.Context, symbol string) ([]types.NewsItem, error) {
	var items []types.NewsItem
	var primaryErr error
	if s.primary != nil {
		items, primaryErr = s.primary.News(ctx, symbol, s.cfg.FetchCount)
		if primaryErr != nil {
			logger.Warn(ctx, "Primary news source failed", "symbol", symbol, "error", primaryErr)
		}
	}

	if len(items) > 0 || s.fallback == nil {
		return items, primaryErr
	}

	logger.Info(ctx, "No headlines from primary source, trying fallback scraper", "symbol", symbol)
	fb, err := s.fallback.Headlines(ctx, symbol, s.cfg.FetchCount)
	if err != nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("news unavailable: %w", primaryErr)
		}
		return nil, err
	}
	return fb, nil
}

// ClearCache removes all cached headlines
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// GetCachedSymbols returns list of symbols with cached headlines
func (s *Service) GetCachedSymbols() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	symbols := make([]string, 0, len(s.cache.data))
	for symbol := range s.cache.data {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Filter drops headlines older than maxAge, sorts newest first, keeps at
// most max items and stamps each with its age relative to now.
func Filter(items []types.NewsItem, now time.Time, maxAge time.Duration, max int) []types.NewsItem {
	cutoff := now.Add(-maxAge)
	out := make([]types.NewsItem, 0, len(items))
	for _, it := range items {
		if !it.PublishedAt.After(cutoff) {
			continue
		}
		it.Age = AgeLabel(it.PublishedAt, now)
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// AgeLabel renders "Xd ago", "Xh ago" or "Xm ago" using the largest
// whole unit, never less than one minute.
func AgeLabel(published, now time.Time) string {
	d := now.Sub(published)
	if days := int(d.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	if hours := int(d.Hours()); hours > 0 {
		return fmt.Sprintf("%dh ago", hours)
	}
	minutes := int(d.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%dm ago", minutes)
}
