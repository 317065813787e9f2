// Package httpapi exposes the analysis pipeline over HTTP for UI clients.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ai-stock-analyst/internal/analyzer"
	"ai-stock-analyst/internal/history"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/sentiment"
	"ai-stock-analyst/internal/ta"
	"ai-stock-analyst/internal/translate"
	"ai-stock-analyst/internal/types"
	"ai-stock-analyst/internal/usage"
)

// SymbolSearch is the last-writer-wins search used by the autocomplete route.
type SymbolSearch interface {
	Search(ctx context.Context, query string) ([]types.SymbolMatch, error)
}

// TranslationService is the subset of translate.Service the API needs.
type TranslationService interface {
	interfaces.Translator
	ClearCache(ctx context.Context) error
	CacheSize(ctx context.Context) (int, error)
	Ledger() *usage.CharacterLedger
}

// Deps are the handlers' collaborators. Translator, History and Tokens
// may be nil.
type Deps struct {
	Analyzer       interfaces.Analyzer
	Search         SymbolSearch
	Translator     TranslationService
	History        history.Recorder
	Tokens         *usage.TokenLedger
	MetricsEnabled bool
}

// Server hosts the JSON API.
type Server struct {
	addr       string
	deps       Deps
	httpServer *http.Server
}

func NewServer(addr string, deps Deps) *Server {
	if strings.TrimSpace(addr) == "" {
		addr = ":8080"
	}
	return &Server{addr: addr, deps: deps}
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info(ctx, "HTTP API listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/languages", s.languages)
	api.GET("/analyze/:symbol", s.analyze)
	api.GET("/search", s.search)
	api.GET("/history", s.history)
	api.GET("/usage", s.usage)
	api.POST("/translate", s.translate)
	api.DELETE("/translate/cache", s.clearTranslations)

	if s.deps.MetricsEnabled {
		metrics.Init()
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	return router
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": translate.Languages()})
}

func (s *Server) analyze(c *gin.Context) {
	lang := c.Query("lang")
	if lang != "" && !translate.IsSupported(lang) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language: " + lang})
		return
	}

	report, err := s.deps.Analyzer.Analyze(c.Request.Context(), types.AnalysisRequest{
		Symbol:   c.Param("symbol"),
		Language: lang,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": analyzer.UserMessage(err)})
		return
	}

	resp := gin.H{"report": report}
	if snap := report.Snapshot; snap != nil {
		resp["technicals"] = ta.Summarize(snap.Monthly)
		if snap.Sentiment != nil {
			resp["moods"] = gin.H{
				"vix":        sentiment.VIXMood(snap.Sentiment.VIX),
				"fear_greed": sentiment.FearGreedMood(snap.Sentiment.FearAndGreedIndex),
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNoDataAvailable):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) search(c *gin.Context) {
	matches, err := s.deps.Search.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer search"})
			return
		}
		c.JSON(statusFor(err), gin.H{"error": analyzer.UserMessage(err)})
		return
	}
	if matches == nil {
		matches = []types.SymbolMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

func (s *Server) history(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusOK, gin.H{"history": []history.Record{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	recs, err := s.deps.History.Recent(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to read history", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"history": recs})
}

func (s *Server) usage(c *gin.Context) {
	resp := gin.H{}
	if s.deps.Tokens != nil {
		resp["llm"] = gin.H{"usage": s.deps.Tokens.Snapshot(), "summary": s.deps.Tokens.Summary()}
	}
	if s.deps.Translator != nil && s.deps.Translator.Ledger() != nil {
		l := s.deps.Translator.Ledger()
		resp["translation"] = gin.H{"usage": l.Snapshot(), "summary": l.Summary()}
	}
	c.JSON(http.StatusOK, resp)
}

type translateRequest struct {
	Texts []string `json:"texts" binding:"required,min=1"`
	From  string   `json:"from"`
	To    string   `json:"to" binding:"required"`
}

func (s *Server) translate(c *gin.Context) {
	if s.deps.Translator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "translation is disabled"})
		return
	}
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.From == "" {
		req.From = translate.DefaultLanguageCode
	}
	if !translate.IsSupported(req.From) || !translate.IsSupported(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language pair"})
		return
	}

	out, err := s.deps.Translator.BatchTranslate(c.Request.Context(), req.Texts, req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": analyzer.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translations": out})
}

func (s *Server) clearTranslations(c *gin.Context) {
	if s.deps.Translator == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := s.deps.Translator.ClearCache(c.Request.Context()); err != nil {
		logger.ErrorWithErr(c.Request.Context(), "Failed to clear translation cache", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache"})
		return
	}
	c.Status(http.StatusNoContent)
}
