package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSymbol     = errors.New("invalid stock symbol")
	ErrInvalidResponse   = errors.New("invalid response from server")
	ErrNoDataAvailable   = errors.New("no data available for this stock")
	ErrNetwork           = errors.New("network connection error")
	ErrMalformedAnalysis = errors.New("malformed analysis response")
	ErrInvalidBar        = errors.New("invalid bar")
)

// ProviderError is a structured error reported by an upstream market data API.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
