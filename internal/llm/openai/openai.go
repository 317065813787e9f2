// Package openai asks a chat completion model for a directional call on a
// compact market payload.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-stock-analyst/internal/api"
	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/llm"
	"ai-stock-analyst/internal/metrics"
	"ai-stock-analyst/internal/trace"
	"ai-stock-analyst/internal/types"
	"ai-stock-analyst/internal/usage"
)

const (
	DefaultEndpoint = "https://api.openai.com/v1"
	DefaultModel    = "gpt-4-turbo-preview"
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY missing")

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai http %d", e.Status)
	}
	return fmt.Sprintf("openai http %d: %s", e.Status, e.Message)
}

type Config struct {
	Endpoint         string
	APIKey           string
	Model            string
	MaxTokens        int
	Temperature      float32
	Timeout          time.Duration
	StrictConfidence bool
	System           string
}

// Analyst calls the chat completions API and records token usage.
type Analyst struct {
	cfg    Config
	client *api.Client
	ledger *usage.TokenLedger
}

var _ interfaces.Analyst = (*Analyst)(nil)

// New builds an analyst. ledger may be nil.
func New(cfg Config, ledger *usage.TokenLedger) (*Analyst, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.System == "" {
		cfg.System = llm.DefaultSystemPrompt
	}
	return &Analyst{
		cfg: cfg,
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			api.WithLogging(true),
		),
		ledger: ledger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze sends the payload and decodes the model's JSON answer. language
// is a display name such as "Korean".
func (a *Analyst) Analyze(ctx context.Context, payload []byte, language string) (types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	body := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.cfg.System},
			{Role: "user", Content: llm.UserPrompt(payload, language)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    a.cfg.Temperature,
		MaxTokens:      a.cfg.MaxTokens,
	}

	resp, err := a.client.POST(ctx, "/chat/completions", nil, body)
	if err != nil {
		return types.AnalysisResult{}, mapError(err)
	}

	var r chatResponse
	if err := resp.ParseJSON(&r); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: openai: %v", types.ErrInvalidResponse, err)
	}

	if r.Usage != nil {
		metrics.AddTokens(r.Usage.PromptTokens, r.Usage.CompletionTokens)
		if a.ledger != nil {
			a.ledger.Record(r.Usage.PromptTokens, r.Usage.CompletionTokens)
		}
	}

	if len(r.Choices) == 0 || strings.TrimSpace(r.Choices[0].Message.Content) == "" {
		return types.AnalysisResult{}, fmt.Errorf("%w: no response content", types.ErrMalformedAnalysis)
	}

	return types.DecodeAnalysis([]byte(strings.TrimSpace(r.Choices[0].Message.Content)), a.cfg.StrictConfidence)
}

func mapError(err error) error {
	var se *api.StatusError
	if errors.As(err, &se) {
		apiErr := &APIError{Status: se.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(se.Body, &env) == nil {
			apiErr.Message = env.Error.Message
			apiErr.Type = env.Error.Type
		}
		return apiErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: openai: %w", types.ErrNetwork, err)
}
