package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-stock-analyst/internal/types"
)

// blockingSource answers immediately for "fast" and waits on ctx otherwise.
type blockingSource struct {
	started chan string
}

func (b *blockingSource) SearchSymbols(ctx context.Context, query string, limit int) ([]types.SymbolMatch, error) {
	if b.started != nil {
		b.started <- query
	}
	if query == "fast" {
		return []types.SymbolMatch{{Symbol: "FAST"}}, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return []types.SymbolMatch{{Symbol: "SLOW"}}, nil
	}
}

func TestSearchSupersedesPrevious(t *testing.T) {
	src := &blockingSource{started: make(chan string, 2)}
	s := New(src, 5)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		done <- err
	}()
	<-src.started

	matches, err := s.Search(context.Background(), "fast")
	if err != nil {
		t.Fatalf("Expected latest search to succeed, got %v", err)
	}
	if len(matches) != 1 || matches[0].Symbol != "FAST" {
		t.Errorf("Expected FAST, got %+v", matches)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected superseded search to return context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected superseded search to return promptly")
	}
}

func TestSearchBlankQuery(t *testing.T) {
	s := New(&blockingSource{}, 5)
	matches, err := s.Search(context.Background(), "   ")
	if err != nil || matches != nil {
		t.Errorf("Expected no matches and no error, got %v %v", matches, err)
	}
}

type failingSource struct{}

func (failingSource) SearchSymbols(ctx context.Context, query string, limit int) ([]types.SymbolMatch, error) {
	return nil, types.ErrNetwork
}

func TestSearchPropagatesError(t *testing.T) {
	if _, err := New(failingSource{}, 0).Search(context.Background(), "aapl"); !errors.Is(err, types.ErrNetwork) {
		t.Errorf("Expected ErrNetwork, got %v", err)
	}
}
