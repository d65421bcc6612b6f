package breaker

import (
	"testing"
	"time"

	"github.com/zen-systems/lexgate/pkg/provider"
)

func testKey() Key {
	return Key{Provider: provider.Anthropic, Category: provider.Chat}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	bank := NewBank(Config{FailureThreshold: 5, Cooldown: time.Minute})
	b := bank.Get(testKey())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
		if got := b.State(); got != Closed {
			t.Fatalf("after %d failures: state = %s, want closed", i+1, got)
		}
	}

	b.RecordFailure()
	if got := b.State(); got != Open {
		t.Fatalf("after 5 failures: state = %s, want open", got)
	}
	if b.Allow() {
		t.Fatal("open circuit must reject requests before cooldown")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	bank := NewBank(Config{FailureThreshold: 5, Cooldown: time.Minute})
	b := bank.Get(testKey())

	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	if got := b.State(); got != Closed {
		t.Fatalf("state = %s, want closed (success should reset the count)", got)
	}
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	bank := NewBank(Config{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
	b := bank.Get(testKey())

	b.RecordFailure()
	if b.Allow() {
		t.Fatal("circuit should be open immediately after tripping")
	}

	time.Sleep(20 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("circuit should admit a probe after cooldown")
	}
	if got := b.State(); got != HalfOpen {
		t.Fatalf("state = %s, want half-open", got)
	}
	if b.Allow() {
		t.Fatal("half-open circuit must admit exactly one probe")
	}
}

func TestBreakerHalfOpenTransitions(t *testing.T) {
	tests := []struct {
		name    string
		outcome func(b *Breaker)
		want    State
	}{
		{"probe success closes", func(b *Breaker) { b.RecordSuccess() }, Closed},
		{"probe failure reopens", func(b *Breaker) { b.RecordFailure() }, Open},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := NewBank(Config{FailureThreshold: 1, Cooldown: time.Millisecond})
			b := bank.Get(testKey())
			b.RecordFailure()
			time.Sleep(5 * time.Millisecond)
			if !b.Allow() {
				t.Fatal("expected probe admission")
			}
			tt.outcome(b)
			if got := b.State(); got != tt.want {
				t.Fatalf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBankKeysAreIndependent(t *testing.T) {
	bank := NewBank(Config{FailureThreshold: 1, Cooldown: time.Minute})
	chat := bank.Get(Key{Provider: provider.Anthropic, Category: provider.Chat})
	embed := bank.Get(Key{Provider: provider.Anthropic, Category: provider.Embedding})

	chat.RecordFailure()
	if got := chat.State(); got != Open {
		t.Fatalf("chat state = %s, want open", got)
	}
	if got := embed.State(); got != Closed {
		t.Fatalf("embedding state = %s, want closed", got)
	}
}

func TestBankResetAllClearsStats(t *testing.T) {
	bank := NewBank(DefaultConfig())
	bank.Get(Key{Provider: provider.Anthropic, Category: provider.Chat}).RecordFailure()
	bank.Get(Key{Provider: provider.OpenAI, Category: provider.Chat}).RecordFailure()

	if got := len(bank.Stats()); got != 2 {
		t.Fatalf("stats length = %d, want 2", got)
	}

	bank.ResetAll()
	if got := len(bank.Stats()); got != 0 {
		t.Fatalf("stats length after ResetAll = %d, want 0", got)
	}
}

func TestBankStatsOrdering(t *testing.T) {
	bank := NewBank(DefaultConfig())
	bank.Get(Key{Provider: provider.OpenAI, Category: provider.Chat})
	bank.Get(Key{Provider: provider.Anthropic, Category: provider.Embedding})
	bank.Get(Key{Provider: provider.Anthropic, Category: provider.Chat})

	stats := bank.Stats()
	if len(stats) != 3 {
		t.Fatalf("stats length = %d, want 3", len(stats))
	}
	if stats[0].Provider != provider.Anthropic || stats[0].Category != provider.Chat {
		t.Fatalf("unexpected first entry: %+v", stats[0])
	}
	if stats[2].Provider != provider.OpenAI {
		t.Fatalf("unexpected last entry: %+v", stats[2])
	}
}

func TestBreakerConcurrentFailures(t *testing.T) {
	bank := NewBank(Config{FailureThreshold: 50, Cooldown: time.Minute})
	b := bank.Get(testKey())

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 5; j++ {
				b.RecordFailure()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := b.State(); got != Open {
		t.Fatalf("state = %s, want open after 50 concurrent failures", got)
	}
}
