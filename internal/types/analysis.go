package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decision is the directional call returned by the analyst model.
type Decision string

const (
	Bullish Decision = "BULLISH"
	Bearish Decision = "BEARISH"
	Neutral Decision = "NEUTRAL"
)

// ParseDecision accepts exactly one of the three tokens. There is no
// fallback: anything else is a malformed analysis.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case Bullish, Bearish, Neutral:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", ErrMalformedAnalysis, s)
	}
}

// Title is the English display label, e.g. "Bullish".
func (d Decision) Title() string {
	if d == "" {
		return ""
	}
	s := strings.ToLower(string(d))
	return strings.ToUpper(s[:1]) + s[1:]
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: decision is not a string", ErrMalformedAnalysis)
	}
	parsed, err := ParseDecision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AnalysisResult is the decoded model answer.
type AnalysisResult struct {
	Decision      Decision
	Confidence    int
	Reason        string
	ExpectedPrice float64
}

type analysisWire struct {
	Decision      *Decision       `json:"decision"`
	Percentage    json.Number     `json:"percentage"`
	Reason        *string         `json:"reason"`
	ExpectedPrice json.RawMessage `json:"expected_next_day_price"`
}

// DecodeAnalysis parses a model answer. The expected price may arrive
// as a number or a numeric string. With strict set, confidence outside
// 1..100 is rejected.
func DecodeAnalysis(data []byte, strict bool) (AnalysisResult, error) {
	var r AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		if errors.Is(err, ErrMalformedAnalysis) {
			return AnalysisResult{}, err
		}
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if strict {
		if err := r.Validate(); err != nil {
			return AnalysisResult{}, err
		}
	}
	return r, nil
}

// Validate enforces the confidence bound.
func (r AnalysisResult) Validate() error {
	if r.Confidence < 1 || r.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d outside 1..100", ErrMalformedAnalysis, r.Confidence)
	}
	return nil
}

func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var w analysisWire
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, ErrMalformedAnalysis) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if w.Decision == nil {
		return fmt.Errorf("%w: missing decision", ErrMalformedAnalysis)
	}
	if w.Percentage == "" {
		return fmt.Errorf("%w: missing percentage", ErrMalformedAnalysis)
	}
	pct, err := w.Percentage.Float64()
	if err != nil || pct != math.Trunc(pct) {
		return fmt.Errorf("%w: percentage %q is not an integer", ErrMalformedAnalysis, w.Percentage)
	}
	if w.Reason == nil {
		return fmt.Errorf("%w: missing reason", ErrMalformedAnalysis)
	}
	price, err := decodePrice(w.ExpectedPrice)
	if err != nil {
		return err
	}
	*r = AnalysisResult{
		Decision:      *w.Decision,
		Confidence:    int(pct),
		Reason:        *w.Reason,
		ExpectedPrice: price,
	}
	return nil
}

// MarshalJSON writes the wire shape back, price as a 2-decimal string.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Decision      Decision `json:"decision"`
		Percentage    int      `json:"percentage"`
		Reason        string   `json:"reason"`
		ExpectedPrice string   `json:"expected_next_day_price"`
	}{r.Decision, r.Confidence, r.Reason, strconv.FormatFloat(r.ExpectedPrice, 'f', 2, 64)})
}

func decodePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: missing expected_next_day_price", ErrMalformedAnalysis)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: expected_next_day_price %q is not numeric", ErrMalformedAnalysis, s)
		}
		return f, nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected_next_day_price %s is not numeric", ErrMalformedAnalysis, raw)
	}
	return f, nil
}
