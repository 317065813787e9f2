package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-stock-analyst/internal/types"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","marketState":"POST","regularMarketPrice":190.0,"postMarketPrice":190.8},
"timestamp":[1717400000,1717400900,1717401800],
"indicators":{"quote":[{
"open":[189.0,null,190.1],
"high":[189.9,190.5,190.9],
"low":[188.5,189.6,189.9],
"close":[189.5,190.2,190.4],
"volume":[1000,2000,3000]}]}}],"error":null}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestChartSkipsNullRowsAndSortsNewestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "15m" {
			t.Errorf("Expected interval 15m, got %s", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(chartBody))
	})

	chart, err := c.Chart(context.Background(), "AAPL", time.Now().Add(-72*time.Hour), time.Now(), "15m")
	if err != nil {
		t.Fatalf("Expected chart, got %v", err)
	}
	if len(chart.Bars) != 2 {
		t.Fatalf("Expected 2 bars after skipping the null row, got %d", len(chart.Bars))
	}
	if !chart.Bars[0].Time.After(chart.Bars[1].Time) {
		t.Error("Expected bars newest first")
	}
	if chart.Bars[0].Close != 190.4 {
		t.Errorf("Expected newest close 190.4, got %f", chart.Bars[0].Close)
	}
	if got := chart.Meta.DisplayPrice(chart.Bars[0].Close); got != 190.8 {
		t.Errorf("Expected post market display price 190.8, got %f", got)
	}
}

func TestChartEscapesIndexSymbol(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v8/finance/chart/%5EVIX" {
			t.Errorf("Expected escaped index path, got %s", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{},"timestamp":[1717400000],"indicators":{"quote":[{"open":[18.1],"close":[18.4]}]}}]}}`))
	})

	v, err := c.VolatilityIndex(context.Background(), "^VIX")
	if err != nil {
		t.Fatalf("Expected VIX value, got %v", err)
	}
	if v != 18.4 {
		t.Errorf("Expected 18.4, got %f", v)
	}
}

func TestVolatilityIndexFallsBackToOpen(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{},"timestamp":[1717400000],"indicators":{"quote":[{"open":[21.5],"close":[null]}]}}]}}`))
	})

	v, err := c.VolatilityIndex(context.Background(), "^VIX")
	if err != nil {
		t.Fatalf("Expected VIX value, got %v", err)
	}
	if v != 21.5 {
		t.Errorf("Expected open fallback 21.5, got %f", v)
	}
}

func TestChartErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := c.Chart(context.Background(), "ZZZZ", time.Now().Add(-time.Hour), time.Now(), "15m")
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusNotFound || pe.Message != "No data found, symbol may be delisted" {
		t.Errorf("Unexpected provider error %+v", pe)
	}
}

func TestChartEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	_, err := c.ChartRange(context.Background(), "AAPL", "1mo", "1d")
	if !errors.Is(err, types.ErrNoDataAvailable) {
		t.Fatalf("Expected ErrNoDataAvailable, got %v", err)
	}
}

func TestChartMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := c.ChartRange(context.Background(), "AAPL", "1mo", "1d")
	if !errors.Is(err, types.ErrInvalidResponse) {
		t.Fatalf("Expected ErrInvalidResponse, got %v", err)
	}
}

func TestChartRejectsBadSymbol(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.ChartRange(context.Background(), "BRK B", "1mo", "1d")
	if !errors.Is(err, types.ErrInvalidSymbol) {
		t.Fatalf("Expected ErrInvalidSymbol, got %v", err)
	}
}

func TestNewsAndSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("newsCount") == "20" {
			if q.Get("quotesCount") != "0" || q.Get("enableFuzzyQuery") != "false" {
				t.Errorf("Unexpected news query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"news":[{"title":"Apple beats","link":"https://x/1","publisher":"Wire","providerPublishTime":1717400000},{"title":"","providerPublishTime":1717400000}]}`))
			return
		}
		w.Write([]byte(`{"quotes":[{"symbol":"AAPL","shortname":"Apple Inc.","longname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY"},{"symbol":"APLE","shortname":"Apple Hospitality"}]}`))
	})

	news, err := c.News(context.Background(), "AAPL", 20)
	if err != nil {
		t.Fatalf("Expected news, got %v", err)
	}
	if len(news) != 1 || news[0].Title != "Apple beats" {
		t.Errorf("Expected one titled item, got %+v", news)
	}

	matches, err := c.SearchSymbols(context.Background(), "app", 1)
	if err != nil {
		t.Fatalf("Expected matches, got %v", err)
	}
	if len(matches) != 1 || matches[0].Symbol != "AAPL" {
		t.Errorf("Expected AAPL capped to one match, got %+v", matches)
	}
}
