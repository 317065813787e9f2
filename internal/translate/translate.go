// Package translate wraps the Azure Translator text API with a shared
// cache, duplicate suppression and a character cost ledger.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ai-stock-analyst/internal/api"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/logger"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/types"
	"ai-stock-analyst/internal/usage"
)

const (
	DefaultEndpoint = "https://api.cognitive.microsofttranslator.com"
	DefaultRegion   = "eastus"
	apiVersion      = "3.0"
)

var (
	// ErrMissingKey is returned by New when no subscription key is set.
	ErrMissingKey = errors.New("AZURE_TRANSLATOR_KEY missing")
	// ErrNoTranslation means the service answered without any text.
	ErrNoTranslation = errors.New("no translation result available")
)

// TranslationFailedError wraps a response that could not be decoded.
type TranslationFailedError struct {
	Err error
}

func (e *TranslationFailedError) Error() string {
	return "translation failed: " + e.Err.Error()
}

func (e *TranslationFailedError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-success status without a decodable error body.
type HTTPStatusError struct {
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.Status)
}

// ProviderTranslationError carries the service's own error code.
type ProviderTranslationError struct {
	Code    int
	Message string
}

func (e *ProviderTranslationError) Error() string {
	return fmt.Sprintf("Azure error (%d): %s", e.Code, e.Message)
}

type Config struct {
	Endpoint string
	APIKey   string
	Region   string
	Timeout  time.Duration
}

// Service translates text and remembers the results.
type Service struct {
	client *api.Client
	store  Store
	ledger *usage.CharacterLedger
	group  singleflight.Group
}

var _ interfaces.Translator = (*Service)(nil)

// New creates a service. store defaults to an unbounded MemoryStore and
// ledger may be nil.
func New(cfg Config, store Store, ledger *usage.CharacterLedger) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if store == nil {
		store = NewMemoryStore(0)
	}

	headers := map[string]string{"Ocp-Apim-Subscription-Key": cfg.APIKey}
	if cfg.Region != "" {
		headers["Ocp-Apim-Subscription-Region"] = cfg.Region
	}
	return &Service{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithHeaders(headers),
			api.WithLogging(true),
		),
		store:  store,
		ledger: ledger,
	}, nil
}

// Translate returns text in the target language. Identical languages
// short-circuit, and concurrent misses for the same key share one call.
func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}

	key := cacheKey(text, from, to)
	if v, ok := s.cached(ctx, key); ok {
		return v, nil
	}

	// The shared call outlives any single caller; each caller still stops
	// waiting when its own context ends.
	callCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if v, ok := s.cached(callCtx, key); ok {
			return v, nil
		}
		metrics.ObserveTranslationCache("miss")

		out, err := s.call(callCtx, text, from, to)
		if err != nil {
			return "", err
		}
		if err := s.store.Set(callCtx, key, out); err != nil {
			logger.Warn(callCtx, "Failed to cache translation", "error", err)
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "Translation cache lookup failed", "error", err)
		return "", false
	}
	if ok {
		metrics.ObserveTranslationCache("hit")
	}
	return v, ok
}

type translateResponse []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Service) call(ctx context.Context, text, from, to string) (string, error) {
	q := url.Values{}
	q.Set("api-version", apiVersion)
	q.Set("from", from)
	q.Set("to", to)

	resp, err := s.client.POST(ctx, "/translate", q, []map[string]string{{"text": text}})
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			var env errorEnvelope
			if json.Unmarshal(se.Body, &env) == nil && env.Error != nil {
				return "", &ProviderTranslationError{Code: env.Error.Code, Message: env.Error.Message}
			}
			return "", &HTTPStatusError{Status: se.StatusCode}
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: translator: %w", types.ErrNetwork, err)
	}

	var r translateResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", &TranslationFailedError{Err: err}
	}
	if len(r) == 0 || len(r[0].Translations) == 0 {
		return "", &TranslationFailedError{Err: ErrNoTranslation}
	}

	chars := utf8.RuneCountInString(text)
	metrics.AddTranslatedChars(chars)
	if s.ledger != nil {
		s.ledger.Record(chars)
		logger.Usage(ctx, "translation", s.ledger.Summary())
	}
	return r[0].Translations[0].Text, nil
}

// BatchTranslate translates every text concurrently and returns the
// results in input order. All calls finish before the first error is
// returned.
func (s *Service) BatchTranslate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	out := make([]string, len(texts))
	var g errgroup.Group
	for i, text := range texts {
		g.Go(func() error {
			v, err := s.Translate(ctx, text, from, to)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearCache drops every cached translation.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// CacheSize reports the number of cached translations.
func (s *Service) CacheSize(ctx context.Context) (int, error) {
	return s.store.Len(ctx)
}

// Ledger exposes the character ledger, nil when none was configured.
func (s *Service) Ledger() *usage.CharacterLedger {
	return s.ledger
}
