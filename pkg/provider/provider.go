// Package provider defines the inference backends lexgate can route to,
// their capability profiles, and the registry that holds them.
package provider

// Provider identifies a remote inference backend.
type Provider string

const (
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
	Google    Provider = "google"
	// Local is the zero-cost on-box fallback. It is skipped in premium mode.
	Local Provider = "local"
)

// Category classifies an AI operation. Each category carries its own
// timeout budget, retry ceiling, and eligible-provider ordering.
type Category string

const (
	Chat           Category = "chat"
	Embedding      Category = "embedding"
	Classification Category = "classification"
	Extraction     Category = "extraction"
	Reasoning      Category = "reasoning"
	QualityJudge   Category = "quality-judge"
)

// Categories lists every operation category.
func Categories() []Category {
	return []Category{Chat, Embedding, Classification, Extraction, Reasoning, QualityJudge}
}

// Profile describes what a provider can do. Immutable after registry load.
type Profile struct {
	Provider         Provider
	Categories       []Category
	PremiumSkippable bool
	RequestsPerMin   int
	Burst            int
}

// Supports reports whether the profile covers a category.
func (p Profile) Supports(c Category) bool {
	for _, cat := range p.Categories {
		if cat == c {
			return true
		}
	}
	return false
}
