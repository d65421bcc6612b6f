package provider

import "testing"

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Profile{
		{Provider: Anthropic, Categories: []Category{Chat}},
		{Provider: Anthropic, Categories: []Category{Embedding}},
	})
	if err == nil {
		t.Fatal("duplicate profiles must be rejected")
	}
}

func TestNewRegistryRejectsMissingIdentity(t *testing.T) {
	_, err := NewRegistry([]Profile{{Categories: []Category{Chat}}})
	if err == nil {
		t.Fatal("profile without a provider must be rejected")
	}
}

func TestRegistrySupports(t *testing.T) {
	r, err := NewRegistry(DefaultProfiles())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	tests := []struct {
		provider Provider
		category Category
		want     bool
	}{
		{Anthropic, Chat, true},
		{Anthropic, Embedding, false},
		{OpenAI, Embedding, true},
		{Local, Classification, true},
		{Local, QualityJudge, false},
		{Provider("unknown"), Chat, false},
	}

	for _, tt := range tests {
		if got := r.Supports(tt.provider, tt.category); got != tt.want {
			t.Errorf("Supports(%s, %s) = %v, want %v", tt.provider, tt.category, got, tt.want)
		}
	}
}

func TestRegistryLimiter(t *testing.T) {
	r, err := NewRegistry([]Profile{
		{Provider: OpenAI, Categories: []Category{Chat}, RequestsPerMin: 120, Burst: 10},
		{Provider: Local, Categories: []Category{Chat}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	l := r.Limiter(OpenAI)
	if l == nil {
		t.Fatal("rate-limited provider must carry a limiter")
	}
	if got := float64(l.Limit()); got != 2 {
		t.Fatalf("limit = %f req/s, want 2", got)
	}
	if l.Burst() != 10 {
		t.Fatalf("burst = %d, want 10", l.Burst())
	}

	if r.Limiter(Local) != nil {
		t.Fatal("unlimited provider must have no limiter")
	}
}

func TestRegistryProvidersPreservesOrder(t *testing.T) {
	r, err := NewRegistry([]Profile{
		{Provider: Google, Categories: []Category{Chat}},
		{Provider: Anthropic, Categories: []Category{Chat}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	got := r.Providers()
	if len(got) != 2 || got[0] != Google || got[1] != Anthropic {
		t.Fatalf("providers = %v, want registration order", got)
	}
}
