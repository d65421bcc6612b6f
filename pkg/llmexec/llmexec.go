// Package llmexec holds the provider SDK glue: thin clients that perform the
// actual remote inference calls, and executor builders that bind them to the
// orchestrator's cascade.
package llmexec

import (
	"context"
	"fmt"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// Completer performs a single text completion against one backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder computes an embedding vector against one backend.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Set maps providers to their live clients. Built once at startup from
// whatever credentials are available.
type Set struct {
	completers map[provider.Provider]Completer
	embedders  map[provider.Provider]Embedder
}

// NewSet creates an empty client set.
func NewSet() *Set {
	return &Set{
		completers: make(map[provider.Provider]Completer),
		embedders:  make(map[provider.Provider]Embedder),
	}
}

// RegisterCompleter binds a completion client to a provider.
func (s *Set) RegisterCompleter(p provider.Provider, c Completer) {
	s.completers[p] = c
}

// RegisterEmbedder binds an embedding client to a provider.
func (s *Set) RegisterEmbedder(p provider.Provider, e Embedder) {
	s.embedders[p] = e
}

// CompletionExecutor builds an orchestrator executor that sends prompt to
// whichever provider the cascade selects.
func (s *Set) CompletionExecutor(prompt string) orchestrator.Executor[string] {
	return func(ctx context.Context, p provider.Provider) (string, error) {
		c, ok := s.completers[p]
		if !ok {
			return "", &orchestrator.ProviderError{
				Provider: p,
				Terminal: true,
				Err:      fmt.Errorf("no completion client configured for %s", p),
			}
		}
		return c.Complete(ctx, prompt)
	}
}

// EmbeddingExecutor builds an orchestrator executor that embeds text with
// whichever provider the cascade selects.
func (s *Set) EmbeddingExecutor(text string) orchestrator.Executor[[]float64] {
	return func(ctx context.Context, p provider.Provider) ([]float64, error) {
		e, ok := s.embedders[p]
		if !ok {
			return nil, &orchestrator.ProviderError{
				Provider: p,
				Terminal: true,
				Err:      fmt.Errorf("no embedding client configured for %s", p),
			}
		}
		return e.Embed(ctx, text)
	}
}
