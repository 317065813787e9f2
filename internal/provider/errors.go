// Package provider holds what the market data clients share.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"ai-stock-analyst/internal/api"
	"ai-stock-analyst/internal/types"
)

// MessageDecoder extracts a human readable message from an error body.
// It returns "" when the body does not match the provider's envelope.
type MessageDecoder func(body []byte) string

// MapError translates an api client error into the shared taxonomy:
// HTTP status failures become *types.ProviderError, request build
// failures become ErrInvalidSymbol, anything else is ErrNetwork.
func MapError(name string, err error, decode MessageDecoder) error {
	if err == nil {
		return nil
	}
	var se *api.StatusError
	if errors.As(err, &se) {
		msg := ""
		if decode != nil {
			msg = decode(se.Body)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(se.Body))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return &types.ProviderError{Provider: name, Status: se.StatusCode, Message: msg}
	}
	if errors.Is(err, api.ErrBadRequest) {
		return fmt.Errorf("%w: %v", types.ErrInvalidSymbol, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", types.ErrNetwork, name, err)
}

// EscapeSymbol validates a ticker and escapes it for use in a URL path.
func EscapeSymbol(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return "", fmt.Errorf("%w: empty symbol", types.ErrInvalidSymbol)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '/' || r == '?' || r == '#' {
			return "", fmt.Errorf("%w: %q", types.ErrInvalidSymbol, symbol)
		}
	}
	return url.PathEscape(s), nil
}
