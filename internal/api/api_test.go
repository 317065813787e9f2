package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestDoSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Default") != "a" {
			t.Errorf("Expected default header, got %q", r.Header.Get("X-Default"))
		}
		if r.Header.Get("X-Request") != "b" {
			t.Errorf("Expected request header, got %q", r.Header.Get("X-Request"))
		}
		if r.URL.Path != "/v1/thing" {
			t.Errorf("Expected path /v1/thing, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "^VIX" {
			t.Errorf("Expected symbol query ^VIX, got %q", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("X-Default", "a"))
	resp, err := c.GET(context.Background(), "/v1/thing", url.Values{"symbol": {"^VIX"}}, map[string]string{"X-Request": "b"})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := resp.ParseJSON(&out); err != nil || !out.OK {
		t.Errorf("Expected ok body, got %s (%v)", resp.String(), err)
	}
}

func TestDoReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.GET(context.Background(), "/", nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", se.StatusCode)
	}
	if string(se.Body) != `{"error":"slow down"}` {
		t.Errorf("Expected body to be preserved, got %s", se.Body)
	}
}

func TestDoRejectsNonOKSuccess(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusAccepted, http.StatusNotModified} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(WithBaseURL(srv.URL))
		_, err := c.GET(context.Background(), "/", nil)
		srv.Close()

		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != status {
			t.Errorf("Expected StatusError %d, got %v", status, err)
		}
	}
}

func TestDoWrapsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := c.GET(context.Background(), "/", nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected ErrTransport, got %v", err)
	}
}

func TestRateLimitSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.GET(context.Background(), "/", nil); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected limiter to space requests, took only %v", elapsed)
	}
}

func TestRateLimitHonorsCancellation(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithRateLimit(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())

	// first call drains the burst token and fails on connect
	_, _ = c.GET(ctx, "/", nil)
	cancel()

	_, err := c.GET(ctx, "/", nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected ErrTransport from cancelled limiter wait, got %v", err)
	}
}

func TestRedactHidesToken(t *testing.T) {
	u, _ := url.Parse("https://finnhub.io/api/v1/quote?symbol=AAPL&token=secret")
	if got := redact(u); got != "https://finnhub.io/api/v1/quote?symbol=AAPL&token=REDACTED" {
		t.Errorf("Unexpected redaction %s", got)
	}
}
