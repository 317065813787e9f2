package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/types"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper reads headlines from the Google News RSS search feed
type Scraper struct {
	baseURL string
	timeout time.Duration
}

var _ Fallback = (*Scraper)(nil)

// NewScraper creates a scraper against baseURL, normally https://news.google.com
func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = "https://news.google.com"
	}
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Headlines returns up to max items from the RSS search feed for symbol
func (s *Scraper) Headlines(ctx context.Context, symbol string, max int) ([]types.NewsItem, error) {
	items := []types.NewsItem{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(s.baseURL)),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", defaultUserAgent)
	})

	c.OnXML("//item", func(e *colly.XMLElement) {
		if max > 0 && len(items) >= max {
			return
		}
		title := strings.TrimSpace(e.ChildText("title"))
		published, ok := parsePubDate(e.ChildText("pubDate"))
		if title == "" || !ok {
			return
		}
		items = append(items, types.NewsItem{
			Title:       title,
			Link:        strings.TrimSpace(e.ChildText("link")),
			Source:      strings.TrimSpace(e.ChildText("source")),
			PublishedAt: published,
		})
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", "GoogleNews", "status", r.StatusCode)
	})

	q := url.Values{}
	q.Set("q", symbol+" stock")
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	searchURL := s.baseURL + "/rss/search?" + q.Encode()

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	if scrapeErr != nil && len(items) == 0 {
		return nil, fmt.Errorf("failed to scrape Google News: %w", scrapeErr)
	}

	logger.Info(ctx, "Google News scraping completed", "symbol", symbol, "articles", len(items))
	return items, nil
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
