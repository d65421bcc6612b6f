package provider

import (
	"fmt"

	"golang.org/x/time/rate"
)

// Registry holds the configured provider profiles and their rate limiters.
// Profiles are fixed at construction; the limiters carry the only runtime state.
type Registry struct {
	profiles map[Provider]Profile
	order    []Provider
	limiters map[Provider]*rate.Limiter
}

// NewRegistry builds a registry from profiles. Duplicate providers are rejected.
func NewRegistry(profiles []Profile) (*Registry, error) {
	r := &Registry{
		profiles: make(map[Provider]Profile, len(profiles)),
		limiters: make(map[Provider]*rate.Limiter, len(profiles)),
	}
	for _, p := range profiles {
		if p.Provider == "" {
			return nil, fmt.Errorf("provider profile missing identity")
		}
		if _, ok := r.profiles[p.Provider]; ok {
			return nil, fmt.Errorf("duplicate provider profile: %s", p.Provider)
		}
		r.profiles[p.Provider] = p
		r.order = append(r.order, p.Provider)
		if p.RequestsPerMin > 0 {
			burst := p.Burst
			if burst <= 0 {
				burst = 1
			}
			r.limiters[p.Provider] = rate.NewLimiter(rate.Limit(float64(p.RequestsPerMin)/60.0), burst)
		}
	}
	return r, nil
}

// Profile returns the profile for a provider.
func (r *Registry) Profile(p Provider) (Profile, bool) {
	prof, ok := r.profiles[p]
	return prof, ok
}

// Supports reports whether a known provider covers a category.
func (r *Registry) Supports(p Provider, c Category) bool {
	prof, ok := r.profiles[p]
	return ok && prof.Supports(c)
}

// Limiter returns the rate limiter for a provider, or nil when unlimited.
func (r *Registry) Limiter(p Provider) *rate.Limiter {
	return r.limiters[p]
}

// Providers returns the configured providers in registration order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultProfiles returns the built-in provider capability table.
func DefaultProfiles() []Profile {
	all := Categories()
	return []Profile{
		{Provider: Anthropic, Categories: []Category{Chat, Classification, Extraction, Reasoning, QualityJudge}, RequestsPerMin: 300, Burst: 20},
		{Provider: OpenAI, Categories: all, RequestsPerMin: 500, Burst: 30},
		{Provider: Google, Categories: []Category{Chat, Embedding, Classification, Extraction}, RequestsPerMin: 300, Burst: 20},
		{Provider: Local, Categories: []Category{Chat, Embedding, Classification}, PremiumSkippable: true},
	}
}
