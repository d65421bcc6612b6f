package llmexec

import (
	"context"
	"errors"
	"testing"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

func TestCompletionExecutorUnconfiguredProviderIsTerminal(t *testing.T) {
	set := NewSet()
	exec := set.CompletionExecutor("hello")

	_, err := exec(context.Background(), provider.Anthropic)
	var perr *orchestrator.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if !perr.Terminal {
		t.Fatal("missing client must be terminal, retrying cannot help")
	}
	if perr.Provider != provider.Anthropic {
		t.Fatalf("provider = %s, want anthropic", perr.Provider)
	}
}

func TestEmbeddingExecutorUnconfiguredProviderIsTerminal(t *testing.T) {
	set := NewSet()
	exec := set.EmbeddingExecutor("hello")

	_, err := exec(context.Background(), provider.Google)
	var perr *orchestrator.ProviderError
	if !errors.As(err, &perr) || !perr.Terminal {
		t.Fatalf("error = %v, want terminal ProviderError", err)
	}
}

func TestCompletionExecutorRoutesToRegisteredClient(t *testing.T) {
	set := NewSet()
	set.RegisterCompleter(provider.Local, NewLocalClientWithResponses(
		map[string]string{"ping": "pong"}, ""))

	got, err := set.CompletionExecutor("ping")(context.Background(), provider.Local)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "pong" {
		t.Fatalf("response = %q, want pong", got)
	}
}

func TestLocalClientCompleteEchoes(t *testing.T) {
	c := NewLocalClient()
	got, err := c.Complete(context.Background(), "bonjour")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got == "" {
		t.Fatal("local completion must never be empty")
	}

	again, _ := c.Complete(context.Background(), "bonjour")
	if got != again {
		t.Fatal("local completion must be deterministic")
	}
}

func TestLocalClientEmbedDeterministic(t *testing.T) {
	c := NewLocalClient()
	a, err := c.Embed(context.Background(), "texte juridique")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("dims = %d, want 64", len(a))
	}

	b, _ := c.Embed(context.Background(), "texte juridique")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text must embed identically")
		}
	}

	other, _ := c.Embed(context.Background(), "autre texte")
	same := true
	for i := range a {
		if a[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different texts must embed differently")
	}
}

func TestMockClientScript(t *testing.T) {
	mock := NewMockClient(
		MockStep{Err: errors.New("first call fails")},
		MockStep{Response: "second call succeeds"},
	)

	if _, err := mock.Complete(context.Background(), "p"); err == nil {
		t.Fatal("first scripted step must fail")
	}
	got, err := mock.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got != "second call succeeds" {
		t.Fatalf("response = %q", got)
	}

	// The last step repeats once the script is exhausted.
	got, err = mock.Complete(context.Background(), "p")
	if err != nil || got != "second call succeeds" {
		t.Fatalf("exhausted script: (%q, %v)", got, err)
	}

	if mock.Calls() != 3 {
		t.Fatalf("calls = %d, want 3", mock.Calls())
	}
}
