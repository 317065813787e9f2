package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-stock-analyst/internal/types"
)

func newTestClient(t *testing.T, key string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: key, Timeout: 2 * time.Second})
}

func TestQuote(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "k" {
			t.Errorf("Expected token query parameter")
		}
		w.Write([]byte(`{"c":190.2,"h":191,"l":188.4,"o":189,"pc":188.9,"t":1717400000}`))
	})

	q, err := c.Quote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Expected quote, got %v", err)
	}
	if q.Symbol != "AAPL" || q.Current != 190.2 {
		t.Errorf("Unexpected quote %+v", q)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	_, err := c.Quote(context.Background(), "NOPE")
	if !errors.Is(err, types.ErrNoDataAvailable) {
		t.Fatalf("Expected ErrNoDataAvailable, got %v", err)
	}
}

func TestQuoteServerError(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"You don't have access to this resource."}`))
	})

	_, err := c.Quote(context.Background(), "AAPL")
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusForbidden || pe.Message != "You don't have access to this resource." {
		t.Errorf("Unexpected provider error %+v", pe)
	}
}

func TestMissingKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Quote(context.Background(), "AAPL")
	var pe *types.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError for missing key, got %v", err)
	}
}

func TestCandles(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("resolution") != "D" {
			t.Errorf("Expected resolution D, got %s", r.URL.Query().Get("resolution"))
		}
		w.Write([]byte(`{"s":"ok","t":[1717200000,1717286400,1717372800],
"o":[180,181,null],"h":[182,183,184],"l":[179,180,181],"c":[181,182,183],"v":[10,20,30]}`))
	})

	bars, err := c.Candles(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now(), "D")
	if err != nil {
		t.Fatalf("Expected candles, got %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("Expected 2 complete bars, got %d", len(bars))
	}
	if bars[0].Close != 182 {
		t.Errorf("Expected newest complete close 182, got %f", bars[0].Close)
	}
}

func TestCandlesNoData(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})

	_, err := c.Candles(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now(), "D")
	if !errors.Is(err, types.ErrNoDataAvailable) {
		t.Fatalf("Expected ErrNoDataAvailable, got %v", err)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	_, err := c.Quote(context.Background(), "AAPL")
	if !errors.Is(err, types.ErrNetwork) {
		t.Fatalf("Expected ErrNetwork, got %v", err)
	}
}
