package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ai-stock-analyst/internal/provider"
	"ai-stock-analyst/internal/types"
)

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

func (c *Client) search(ctx context.Context, q url.Values) (*searchResponse, error) {
	resp, err := c.api.GET(ctx, "/v1/finance/search", q)
	if err != nil {
		return nil, provider.MapError(Name, err, nil)
	}
	var out searchResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, fmt.Errorf("%w: %s search: %v", types.ErrInvalidResponse, Name, err)
	}
	return &out, nil
}

// News returns up to count raw headlines for the symbol, unfiltered.
// Age labels are left for the caller to compute.
func (c *Client) News(ctx context.Context, symbol string, count int) ([]types.NewsItem, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%w: empty symbol", types.ErrInvalidSymbol)
	}
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("quotesCount", "0")
	q.Set("newsCount", strconv.Itoa(count))
	q.Set("enableFuzzyQuery", "false")
	q.Set("enableEnhancedTrivialQuery", "false")

	out, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]types.NewsItem, 0, len(out.News))
	for _, n := range out.News {
		if strings.TrimSpace(n.Title) == "" || n.ProviderPublishTime == 0 {
			continue
		}
		items = append(items, types.NewsItem{
			Title:       strings.TrimSpace(n.Title),
			Link:        n.Link,
			Source:      n.Publisher,
			PublishedAt: time.Unix(n.ProviderPublishTime, 0).UTC(),
		})
	}
	return items, nil
}

// SearchSymbols returns autocomplete matches for a partial query.
func (c *Client) SearchSymbols(ctx context.Context, query string, limit int) ([]types.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(limit))
	q.Set("newsCount", "0")

	out, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}

	matches := make([]types.SymbolMatch, 0, len(out.Quotes))
	for _, r := range out.Quotes {
		if r.Symbol == "" {
			continue
		}
		matches = append(matches, types.SymbolMatch{
			Symbol:    r.Symbol,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Exchange:  r.Exchange,
			QuoteType: r.QuoteType,
		})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}
