// Package usage keeps running cost ledgers for the paid upstream APIs.
package usage

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1_000_000)
)

// TokenSnapshot is a point-in-time copy of the token ledger.
type TokenSnapshot struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCost        float64 `json:"total_cost"`
}

// TokenLedger accumulates LLM token usage priced per thousand tokens.
type TokenLedger struct {
	mu         sync.Mutex
	inputRate  decimal.Decimal
	outputRate decimal.Decimal
	prompt     int
	completion int
	cost       decimal.Decimal
}

// NewTokenLedger creates a ledger with USD prices per 1K prompt and
// completion tokens.
func NewTokenLedger(inputPer1K, outputPer1K float64) *TokenLedger {
	return &TokenLedger{
		inputRate:  decimal.NewFromFloat(inputPer1K),
		outputRate: decimal.NewFromFloat(outputPer1K),
	}
}

// Record adds one call's usage and returns that call's cost.
func (l *TokenLedger) Record(prompt, completion int) float64 {
	callCost := decimal.NewFromInt(int64(prompt)).Mul(l.inputRate).Div(thousand).
		Add(decimal.NewFromInt(int64(completion)).Mul(l.outputRate).Div(thousand))

	l.mu.Lock()
	l.prompt += prompt
	l.completion += completion
	l.cost = l.cost.Add(callCost)
	l.mu.Unlock()

	return callCost.InexactFloat64()
}

func (l *TokenLedger) Snapshot() TokenSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return TokenSnapshot{
		PromptTokens:     l.prompt,
		CompletionTokens: l.completion,
		TotalCost:        l.cost.InexactFloat64(),
	}
}

// Summary renders the ledger for display.
func (l *TokenLedger) Summary() string {
	s := l.Snapshot()
	return fmt.Sprintf("Total Usage:\n- Prompt Tokens: %d\n- Completion Tokens: %d\n- Total Cost: $%.4f",
		s.PromptTokens, s.CompletionTokens, s.TotalCost)
}

// CharacterSnapshot is a point-in-time copy of the character ledger.
type CharacterSnapshot struct {
	Characters int     `json:"characters"`
	TotalCost  float64 `json:"total_cost"`
}

// CharacterLedger accumulates translated characters priced per million.
type CharacterLedger struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	chars int
}

func NewCharacterLedger(pricePerMillion float64) *CharacterLedger {
	return &CharacterLedger{rate: decimal.NewFromFloat(pricePerMillion)}
}

// Record adds n billed characters.
func (l *CharacterLedger) Record(n int) {
	l.mu.Lock()
	l.chars += n
	l.mu.Unlock()
}

func (l *CharacterLedger) Snapshot() CharacterSnapshot {
	l.mu.Lock()
	chars := l.chars
	l.mu.Unlock()
	cost := decimal.NewFromInt(int64(chars)).Mul(l.rate).Div(million)
	return CharacterSnapshot{Characters: chars, TotalCost: cost.InexactFloat64()}
}

func (l *CharacterLedger) Summary() string {
	s := l.Snapshot()
	return fmt.Sprintf("Translation Usage - Characters: %d, Cost: $%.4f", s.Characters, s.TotalCost)
}
