package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-stock-analyst/internal/types"
	"ai-stock-analyst/internal/usage"
)

func newServer(t *testing.T, status int, body string, check func(r *http.Request, req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Expected JSON request body, got %v", err)
		}
		if check != nil {
			check(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
		"usage":   map[string]int{"prompt_tokens": 1000, "completion_tokens": 200, "total_tokens": 1200},
	})
	return string(b)
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	content := `{"decision":"BULLISH","percentage":72,"reason":"Momentum is strong.","expected_next_day_price":"191.20"}`
	srv := newServer(t, http.StatusOK, completion(content), func(r *http.Request, req chatRequest) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected /v1/chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		if req.Model != DefaultModel {
			t.Errorf("Expected model %s, got %s", DefaultModel, req.Model)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("Expected json_object response format, got %v", req.ResponseFormat)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("Expected system and user messages, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, `{"currentPrice":190.45}`) ||
			!strings.Contains(req.Messages[1].Content, "in Korean language") {
			t.Errorf("Expected payload and language in prompt, got %s", req.Messages[1].Content)
		}
	})
	defer srv.Close()

	ledger := usage.NewTokenLedger(0.01, 0.03)
	a, err := New(Config{Endpoint: srv.URL + "/v1", APIKey: "sk-test", Temperature: 0.7}, ledger)
	if err != nil {
		t.Fatalf("Expected analyst, got %v", err)
	}

	res, err := a.Analyze(context.Background(), []byte(`{"currentPrice":190.45}`), "Korean")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Decision != types.Bullish || res.Confidence != 72 || res.ExpectedPrice != 191.20 {
		t.Errorf("Unexpected result %+v", res)
	}

	s := ledger.Snapshot()
	if s.PromptTokens != 1000 || s.CompletionTokens != 200 {
		t.Errorf("Expected 1000/200 tokens, got %d/%d", s.PromptTokens, s.CompletionTokens)
	}
	if s.TotalCost != 0.016 {
		t.Errorf("Expected cost 0.016, got %v", s.TotalCost)
	}
}

func TestAnalyzeAPIError(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`, nil)
	defer srv.Close()

	a, _ := New(Config{Endpoint: srv.URL, APIKey: "k"}, nil)
	_, err := a.Analyze(context.Background(), []byte(`{}`), "English")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != 429 || apiErr.Message != "Rate limit reached" || apiErr.Type != "requests" {
		t.Errorf("Unexpected APIError %+v", apiErr)
	}
}

func TestAnalyzeGenericStatusError(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `upstream down`, nil)
	defer srv.Close()

	a, _ := New(Config{Endpoint: srv.URL, APIKey: "k"}, nil)
	_, err := a.Analyze(context.Background(), []byte(`{}`), "English")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 502 || apiErr.Message != "" {
		t.Errorf("Expected bare 502 APIError, got %v", err)
	}
}

func TestAnalyzeMalformedContent(t *testing.T) {
	cases := []string{
		`not json`,
		`{"decision":"UP","percentage":50,"reason":"x","expected_next_day_price":"1.00"}`,
		`{"decision":"BEARISH","reason":"x","expected_next_day_price":"1.00"}`,
	}
	for _, content := range cases {
		srv := newServer(t, http.StatusOK, completion(content), nil)
		a, _ := New(Config{Endpoint: srv.URL, APIKey: "k"}, nil)
		_, err := a.Analyze(context.Background(), []byte(`{}`), "English")
		srv.Close()
		if !errors.Is(err, types.ErrMalformedAnalysis) {
			t.Errorf("Content %s: expected ErrMalformedAnalysis, got %v", content, err)
		}
	}
}

func TestAnalyzeStrictConfidence(t *testing.T) {
	content := `{"decision":"NEUTRAL","percentage":140,"reason":"x","expected_next_day_price":10}`

	srv := newServer(t, http.StatusOK, completion(content), nil)
	defer srv.Close()

	lenient, _ := New(Config{Endpoint: srv.URL, APIKey: "k"}, nil)
	if _, err := lenient.Analyze(context.Background(), []byte(`{}`), ""); err != nil {
		t.Errorf("Expected lenient analyst to accept 140, got %v", err)
	}

	strict, _ := New(Config{Endpoint: srv.URL, APIKey: "k", StrictConfidence: true}, nil)
	if _, err := strict.Analyze(context.Background(), []byte(`{}`), ""); !errors.Is(err, types.ErrMalformedAnalysis) {
		t.Errorf("Expected strict analyst to reject 140, got %v", err)
	}
}
