// Package search runs symbol autocomplete where only the latest query
// matters.
package search

import (
	"context"
	"strings"
	"sync"

	"ai-stock-analyst/internal/interfaces"
	"ai-stock-analyst/internal/types"
)

// Searcher cancels the in-flight lookup whenever a newer one starts.
type Searcher struct {
	src   interfaces.SymbolSearcher
	limit int

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func New(src interfaces.SymbolSearcher, limit int) *Searcher {
	if limit <= 0 {
		limit = 10
	}
	return &Searcher{src: src, limit: limit}
}

// Search looks up query. A search superseded by a later call returns
// context.Canceled. A blank query returns no matches without a lookup.
func (s *Searcher) Search(ctx context.Context, query string) ([]types.SymbolMatch, error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if query == "" {
		s.mu.Unlock()
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	mine := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == mine {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	matches, err := s.src.SearchSymbols(ctx, query, s.limit)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return matches, nil
}
