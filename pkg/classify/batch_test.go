package classify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

func TestClassifyBatchEveryItemGetsAResult(t *testing.T) {
	engine := NewEngine(testOrchestrator(t), staticLLM(`{"category":"jurisprudence","confidence":0.9}`))

	items := make([]Input, 6)
	for i := range items {
		items[i] = Input{Text: jurisprudenceText}
	}

	results := engine.ClassifyBatch(context.Background(), items, Options{})
	if len(results) != 6 {
		t.Fatalf("results length = %d, want 6", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Fatalf("result %d has index %d", i, res.Index)
		}
		if res.Err != nil {
			t.Fatalf("item %d: unexpected error %v", i, res.Err)
		}
		if res.Result.PrimaryCategory != Jurisprudence {
			t.Fatalf("item %d: category = %s, want jurisprudence", i, res.Result.PrimaryCategory)
		}
	}
}

func TestClassifyBatchFailureDoesNotAbortSiblings(t *testing.T) {
	var mu sync.Mutex
	var calls int
	llm := func(_ context.Context, p provider.Provider, _ string) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return "", &orchestrator.ProviderError{Provider: p, Status: 401, Terminal: true, Err: errors.New("bad key")}
		}
		return `{"category":"legislation","confidence":0.8}`, nil
	}
	engine := NewEngine(testOrchestrator(t), llm)

	// ForceLLM so every item hits the scripted LLM; batch size 5 splits
	// six items into two groups.
	items := make([]Input, 6)
	for i := range items {
		items[i] = Input{Text: "texte de loi"}
	}

	results := engine.ClassifyBatch(context.Background(), items, Options{ForceLLM: true, SkipCache: true})
	if len(results) != 6 {
		t.Fatalf("results length = %d, want 6", len(results))
	}

	var failed, succeeded int
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		succeeded++
		if res.Result == nil {
			t.Fatal("successful item missing result")
		}
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want exactly 1", failed)
	}
	if succeeded != 5 {
		t.Fatalf("succeeded = %d, want 5", succeeded)
	}
}

func TestCacheKeyNormalizesNumericSegments(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{
			name: "sibling detail pages collapse",
			a:    "https://example.ma/jurisprudence/123/details",
			b:    "https://example.ma/jurisprudence/456/details",
			same: true,
		},
		{
			name: "case is insignificant",
			a:    "https://Example.MA/Jurisprudence/1",
			b:    "https://example.ma/jurisprudence/2",
			same: true,
		},
		{
			name: "different sections stay distinct",
			a:    "https://example.ma/jurisprudence/123",
			b:    "https://example.ma/legislation/123",
			same: false,
		},
		{
			name: "mixed alphanumeric segments are not collapsed",
			a:    "https://example.ma/dossier/abc123",
			b:    "https://example.ma/dossier/abc456",
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := cacheKey("cases", tt.a)
			kb := cacheKey("cases", tt.b)
			if (ka == kb) != tt.same {
				t.Fatalf("cacheKey(%q) = %q, cacheKey(%q) = %q, same = %v, want %v",
					tt.a, ka, tt.b, kb, ka == kb, tt.same)
			}
		})
	}
}

func TestCacheKeyIncludesSource(t *testing.T) {
	url := "https://example.ma/jurisprudence/1"
	if cacheKey("cases", url) == cacheKey("news", url) {
		t.Fatal("different sources must not share cache entries")
	}
}
