// Package claude asks an Anthropic Messages model for a directional call
// on a compact market payload.
package claude

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
	DefaultEndpoint = "https://api.anthropic.com/v1"
	DefaultModel    = "claude-3-5-sonnet-latest"
	apiVersion      = "2023-06-01"
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("CLAUDE_API_KEY missing")

// APIError is a non-2xx answer from the messages endpoint.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("claude http %d", e.Status)
	}
	return fmt.Sprintf("claude http %d: %s", e.Status, e.Message)
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
			api.WithHeader("x-api-key", cfg.APIKey),
			api.WithHeader("anthropic-version", apiVersion),
			api.WithLogging(true),
		),
		ledger: ledger,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the payload and decodes the JSON object in the reply.
// The model has no JSON mode, so surrounding prose is stripped first.
func (a *Analyst) Analyze(ctx context.Context, payload []byte, language string) (types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	body := messagesRequest{
		Model:       a.cfg.Model,
		System:      a.cfg.System,
		Messages:    []message{{Role: "user", Content: llm.UserPrompt(payload, language)}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	}

	resp, err := a.client.POST(ctx, "/messages", nil, body)
	if err != nil {
		return types.AnalysisResult{}, mapError(err)
	}

	var r messagesResponse
	if err := resp.ParseJSON(&r); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("%w: claude: %v", types.ErrInvalidResponse, err)
	}

	if r.Usage != nil {
		metrics.AddTokens(r.Usage.InputTokens, r.Usage.OutputTokens)
		if a.ledger != nil {
			a.ledger.Record(r.Usage.InputTokens, r.Usage.OutputTokens)
		}
	}

	var text strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	obj, ok := ExtractJSON(text.String())
	if !ok {
		return types.AnalysisResult{}, fmt.Errorf("%w: no JSON object in response", types.ErrMalformedAnalysis)
	}
	return types.DecodeAnalysis([]byte(obj), a.cfg.StrictConfidence)
}

// ExtractJSON returns the span from the first '{' to the last '}'.
func ExtractJSON(text string) (string, bool) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return t[start : end+1], true
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
	return fmt.Errorf("%w: claude: %w", types.ErrNetwork, err)
}
