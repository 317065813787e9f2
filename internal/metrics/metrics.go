// Package metrics registers the pipeline counters:
//
//	ai_stock_analyst_price_tier_total{tier,outcome}
//	ai_stock_analyst_analyses_total{outcome}
//	ai_stock_analyst_analysis_duration_seconds
//	ai_stock_analyst_llm_tokens_total{kind}
//	ai_stock_analyst_translation_characters_total
//	ai_stock_analyst_translation_cache_total{result}
//	go_* and process_* system metrics
//
// Recording functions are no-ops until Init runs.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ai_stock_analyst"

var (
	once     sync.Once
	registry *prometheus.Registry

	priceTier        *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	llmTokens        *prometheus.CounterVec
	translatedChars  prometheus.Counter
	translationCache *prometheus.CounterVec
)

// Init creates and registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		priceTier = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_tier_total",
				Help:      "Price fetch attempts by provider tier and outcome",
			},
			[]string{"tier", "outcome"},
		)
		analyses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Completed analysis runs by outcome",
			},
			[]string{"outcome"},
		)
		analysisDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "End to end analysis latency",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
		)
		llmTokens = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Tokens billed by the language model",
			},
			[]string{"kind"},
		)
		translatedChars = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translation_characters_total",
				Help:      "Characters sent to the translation service",
			},
		)
		translationCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translation_cache_total",
				Help:      "Translation cache lookups by result",
			},
			[]string{"result"},
		)

		registry.MustRegister(
			priceTier,
			analyses,
			analysisDuration,
			llmTokens,
			translatedChars,
			translationCache,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler exposes the registry. Before Init it serves 404.
func Handler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// ObserveTier counts one price tier attempt.
func ObserveTier(tier, outcome string) {
	if priceTier != nil {
		priceTier.WithLabelValues(tier, outcome).Inc()
	}
}

// ObserveAnalysis records the outcome and latency of one analysis.
func ObserveAnalysis(outcome string, elapsed time.Duration) {
	if analyses != nil {
		analyses.WithLabelValues(outcome).Inc()
		analysisDuration.Observe(elapsed.Seconds())
	}
}

// AddTokens counts billed prompt and completion tokens.
func AddTokens(prompt, completion int) {
	if llmTokens != nil {
		llmTokens.WithLabelValues("prompt").Add(float64(prompt))
		llmTokens.WithLabelValues("completion").Add(float64(completion))
	}
}

// AddTranslatedChars counts characters billed by the translator.
func AddTranslatedChars(n int) {
	if translatedChars != nil {
		translatedChars.Add(float64(n))
	}
}

// ObserveTranslationCache counts a cache "hit" or "miss".
func ObserveTranslationCache(result string) {
	if translationCache != nil {
		translationCache.WithLabelValues(result).Inc()
	}
}
