package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-stock-analyst/internal/history"
	"ai-stock-analyst/internal/types"
	"ai-stock-analyst/internal/usage"
)

type stubAnalyzer struct {
	report *types.AnalysisReport
	err    error
	got    types.AnalysisRequest
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	s.got = req
	return s.report, s.err
}

type stubSearch struct {
	matches []types.SymbolMatch
	err     error
}

func (s *stubSearch) Search(ctx context.Context, query string) ([]types.SymbolMatch, error) {
	return s.matches, s.err
}

type stubTranslator struct {
	cleared bool
	ledger  *usage.CharacterLedger
}

func (s *stubTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	return fmt.Sprintf("[%s] %s", to, text), nil
}

func (s *stubTranslator) BatchTranslate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i], _ = s.Translate(ctx, t, from, to)
	}
	return out, nil
}

func (s *stubTranslator) ClearCache(ctx context.Context) error {
	s.cleared = true
	return nil
}

func (s *stubTranslator) CacheSize(ctx context.Context) (int, error) { return 0, nil }

func (s *stubTranslator) Ledger() *usage.CharacterLedger { return s.ledger }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}})
	w := do(t, srv.Router(), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Expected ok status, got %s", w.Body.String())
	}
}

func TestAnalyzeReturnsReportAndMoods(t *testing.T) {
	a := &stubAnalyzer{report: &types.AnalysisReport{
		Symbol:        "AAPL",
		Language:      "ko",
		Result:        types.AnalysisResult{Decision: types.Bullish, Confidence: 80, Reason: "r", ExpectedPrice: 200},
		DecisionLabel: "Bullish",
		CurrentPrice:  190.45,
		Snapshot:      &types.MarketSnapshot{Symbol: "AAPL", Sentiment: &types.SentimentSnapshot{VIX: 18.4, FearAndGreedIndex: 79}},
		GeneratedAt:   time.Now(),
	}}
	srv := NewServer("", Deps{Analyzer: a, Search: &stubSearch{}})

	w := do(t, srv.Router(), http.MethodGet, "/api/analyze/aapl?lang=ko", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if a.got.Symbol != "aapl" || a.got.Language != "ko" {
		t.Errorf("Expected request aapl/ko, got %+v", a.got)
	}

	var body struct {
		Report     types.AnalysisReport `json:"report"`
		Moods      map[string]string    `json:"moods"`
		Technicals struct {
			Bars int `json:"bars"`
		} `json:"technicals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if body.Report.CurrentPrice != 190.45 {
		t.Errorf("Expected current price 190.45, got %v", body.Report.CurrentPrice)
	}
	if body.Moods["vix"] != "Stable" || body.Moods["fear_greed"] != "Extreme Greed" {
		t.Errorf("Expected Stable/Extreme Greed moods, got %v", body.Moods)
	}
	if body.Technicals.Bars != 0 {
		t.Errorf("Expected empty technicals for a snapshot without bars, got %d", body.Technicals.Bars)
	}
	if !strings.Contains(w.Body.String(), `"technicals"`) {
		t.Error("Expected technicals block in response")
	}
}

func TestAnalyzeRejectsUnsupportedLanguage(t *testing.T) {
	a := &stubAnalyzer{}
	srv := NewServer("", Deps{Analyzer: a, Search: &stubSearch{}})
	w := do(t, srv.Router(), http.MethodGet, "/api/analyze/AAPL?lang=xx", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if a.got.Symbol != "" {
		t.Error("Expected analyzer not to be called")
	}
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("%w: x", types.ErrInvalidSymbol), http.StatusBadRequest, "Invalid stock symbol"},
		{fmt.Errorf("%w: x", types.ErrNoDataAvailable), http.StatusNotFound, "No data available for this stock"},
		{fmt.Errorf("%w: x", types.ErrNetwork), http.StatusBadGateway, "Network connection error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
	}
	for _, tc := range cases {
		srv := NewServer("", Deps{Analyzer: &stubAnalyzer{err: tc.err}, Search: &stubSearch{}})
		w := do(t, srv.Router(), http.MethodGet, "/api/analyze/AAPL", "")
		if w.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.msg) {
			t.Errorf("%v: expected message %q, got %s", tc.err, tc.msg, w.Body.String())
		}
	}
}

func TestSearch(t *testing.T) {
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{matches: []types.SymbolMatch{{Symbol: "AAPL"}}}})
	w := do(t, srv.Router(), http.MethodGet, "/api/search?q=app", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"AAPL"`) {
		t.Errorf("Expected AAPL match, got %d %s", w.Code, w.Body.String())
	}

	srv = NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}})
	w = do(t, srv.Router(), http.MethodGet, "/api/search?q=", "")
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("Expected empty results array, got %s", w.Body.String())
	}

	srv = NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{err: context.Canceled}})
	w = do(t, srv.Router(), http.MethodGet, "/api/search?q=ap", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for superseded search, got %d", w.Code)
	}
}

func TestTranslateEndpoints(t *testing.T) {
	tr := &stubTranslator{ledger: usage.NewCharacterLedger(10)}
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}, Translator: tr})
	router := srv.Router()

	w := do(t, router, http.MethodPost, "/api/translate", `{"texts":["hello","world"],"to":"ja"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Translations []string `json:"translations"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Translations) != 2 || body.Translations[1] != "[ja] world" {
		t.Errorf("Expected ordered translations, got %v", body.Translations)
	}

	w = do(t, router, http.MethodPost, "/api/translate", `{"texts":["hello"],"to":"zz"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown target, got %d", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/api/translate/cache", "")
	if w.Code != http.StatusNoContent || !tr.cleared {
		t.Errorf("Expected cache cleared with 204, got %d cleared=%v", w.Code, tr.cleared)
	}
}

func TestTranslateDisabled(t *testing.T) {
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}})
	w := do(t, srv.Router(), http.MethodPost, "/api/translate", `{"texts":["hello"],"to":"ja"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestUsage(t *testing.T) {
	tokens := usage.NewTokenLedger(0.01, 0.03)
	tokens.Record(1000, 200)
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}, Tokens: tokens})
	w := do(t, srv.Router(), http.MethodGet, "/api/usage", "")
	if !strings.Contains(w.Body.String(), "Prompt Tokens: 1000") {
		t.Errorf("Expected token summary, got %s", w.Body.String())
	}
}

type failingRecorder struct{ *history.NoopRecorder }

func (failingRecorder) Recent(context.Context, string, int) ([]history.Record, error) {
	return nil, errors.New("disk gone")
}

func TestHistory(t *testing.T) {
	rec, err := history.NewJSONLRecorder(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = rec.Record(context.Background(), history.Record{ID: "1", Symbol: "AAPL", Timestamp: time.Now().UTC(), Decision: types.Bullish})
	_ = rec.Record(context.Background(), history.Record{ID: "2", Symbol: "MSFT", Timestamp: time.Now().UTC(), Decision: types.Bearish})

	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}, History: rec})
	w := do(t, srv.Router(), http.MethodGet, "/api/history?symbol=aapl", "")
	var body struct {
		History []history.Record `json:"history"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.History) != 1 || body.History[0].Symbol != "AAPL" {
		t.Errorf("Expected one AAPL record, got %+v", body.History)
	}

	srv = NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}, History: failingRecorder{history.NewNoopRecorder()}})
	w = do(t, srv.Router(), http.MethodGet, "/api/history", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestLanguages(t *testing.T) {
	srv := NewServer("", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}})
	w := do(t, srv.Router(), http.MethodGet, "/api/languages", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ko"`) {
		t.Errorf("Expected language list including ko, got %d", w.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", Deps{Analyzer: &stubAnalyzer{}, Search: &stubSearch{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}
}
