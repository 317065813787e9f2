// Package analyzer runs one analysis end to end: fetch, compact, ask the
// model, localize and record.
package analyzer

import (
	"context"
	"strings"
	"time"

	"ai-stock-analyst/internal/history"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/payload"
	"ai-stock-analyst/internal/translate"
	"ai-stock-analyst/internal/types"
)

type Config struct {
	DefaultLanguage string
	// TranslateReason asks the model in English and translates the reason
	// paragraph by paragraph instead of prompting in the target language.
	TranslateReason bool
	// Location formats payload dates; nil keeps each bar's own zone.
	Location *time.Location
}

type Analyzer struct {
	cfg        Config
	agg        interfaces.Aggregator
	analyst    interfaces.Analyst
	translator interfaces.Translator
	recorder   history.Recorder
	now        func() time.Time
}

var _ interfaces.Analyzer = (*Analyzer)(nil)

// New builds the pipeline. translator and recorder may be nil.
func New(cfg Config, agg interfaces.Aggregator, analyst interfaces.Analyst, translator interfaces.Translator, recorder history.Recorder) *Analyzer {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = translate.DefaultLanguageCode
	}
	if recorder == nil {
		recorder = history.NewNoopRecorder()
	}
	return &Analyzer{
		cfg:        cfg,
		agg:        agg,
		analyst:    analyst,
		translator: translator,
		recorder:   recorder,
		now:        time.Now,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	start := a.now()
	report, err := a.analyze(ctx, req)
	if err != nil {
		metrics.ObserveAnalysis("failure", a.now().Sub(start))
		return nil, err
	}
	metrics.ObserveAnalysis("success", a.now().Sub(start))
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	code := req.Language
	if code == "" {
		code = a.cfg.DefaultLanguage
	}
	if !translate.IsSupported(code) {
		logger.Warn(ctx, "Unsupported language, falling back to English", "language", code)
	}
	lang := translate.LanguageByCode(code)

	snapshot, err := a.agg.Fetch(ctx, req.Symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch market data", err, "symbol", req.Symbol)
		return nil, err
	}
	logger.Debug(ctx, "Market data fetched",
		"symbol", snapshot.Symbol,
		"source", snapshot.Source,
		"intraday", len(snapshot.Intraday),
		"monthly", len(snapshot.Monthly),
		"news", len(snapshot.News),
		"sentiment", snapshot.Sentiment != nil,
	)

	compact := payload.Compact(snapshot, a.cfg.Location)
	body, err := payload.Encode(compact)
	if err != nil {
		return nil, err
	}

	translateAfter := a.cfg.TranslateReason && a.translator != nil && lang.Code != translate.DefaultLanguageCode
	promptLang := lang.EnglishName
	if translateAfter {
		promptLang = translate.LanguageByCode(translate.DefaultLanguageCode).EnglishName
	}

	result, err := a.analyst.Analyze(ctx, body, promptLang)
	if err != nil {
		return nil, err
	}

	if translateAfter {
		result.Reason = a.localizeReason(ctx, result.Reason, lang.Code)
	}

	report := &types.AnalysisReport{
		Symbol:        snapshot.Symbol,
		Language:      lang.Code,
		Result:        result,
		DecisionLabel: a.DisplayDecision(ctx, result.Decision, lang.Code),
		CurrentPrice:  compact.CurrentPrice,
		DisplayPrice:  snapshot.DisplayPrice,
		Source:        snapshot.Source,
		Snapshot:      snapshot,
		GeneratedAt:   a.now(),
	}

	if err := a.recorder.Record(ctx, history.FromReport(report)); err != nil {
		logger.Warn(ctx, "Failed to record analysis history", "symbol", report.Symbol, "error", err)
	}

	logger.Analysis(ctx, report.Symbol, string(result.Decision), result.Confidence, result.ExpectedPrice,
		"language", report.Language,
		"current_price", report.CurrentPrice,
		"source", report.Source,
	)
	return report, nil
}

// localizeReason translates each paragraph and keeps their order. On
// failure the English text is kept.
func (a *Analyzer) localizeReason(ctx context.Context, reason, code string) string {
	paragraphs := SplitParagraphs(reason)
	if len(paragraphs) == 0 {
		return reason
	}
	translated, err := a.translator.BatchTranslate(ctx, paragraphs, translate.DefaultLanguageCode, code)
	if err != nil {
		logger.Warn(ctx, "Reason translation failed, keeping English", "language", code, "error", err)
		return reason
	}
	return strings.Join(translated, "\n\n")
}

// SplitParagraphs breaks text on blank lines and drops empty pieces.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DisplayDecision returns the decision label in the given language. It is
// for display only; the canonical value stays in the result.
func (a *Analyzer) DisplayDecision(ctx context.Context, d types.Decision, code string) string {
	label := d.Title()
	if a.translator == nil || code == "" || code == translate.DefaultLanguageCode {
		return label
	}
	out, err := a.translator.Translate(ctx, label, translate.DefaultLanguageCode, code)
	if err != nil {
		logger.Debug(ctx, "Decision label translation failed", "language", code, "error", err)
		return label
	}
	return out
}
