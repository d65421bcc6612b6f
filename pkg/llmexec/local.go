package llmexec

import (
	"context"
	"fmt"
	"hash/fnv"
)

// LocalClient is the zero-cost on-box fallback. It produces deterministic
// low-quality output so callers degrade instead of failing outright when
// every remote provider is down. Its provider profile is premium-skippable.
type LocalClient struct {
	responses       map[string]string
	defaultResponse string
}

// NewLocalClient creates a local fallback client.
func NewLocalClient() *LocalClient {
	return &LocalClient{
		responses:       make(map[string]string),
		defaultResponse: "local fallback response:",
	}
}

// NewLocalClientWithResponses creates a local client with canned responses,
// keyed by exact prompt. Used for offline runs.
func NewLocalClientWithResponses(responses map[string]string, defaultResponse string) *LocalClient {
	if defaultResponse == "" {
		defaultResponse = "local fallback response:"
	}
	return &LocalClient{responses: responses, defaultResponse: defaultResponse}
}

// Complete returns the canned response for the prompt, or a deterministic echo.
func (c *LocalClient) Complete(_ context.Context, prompt string) (string, error) {
	if resp, ok := c.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("%s\n%s", c.defaultResponse, prompt), nil
}

// Embed returns a deterministic pseudo-embedding derived from the text hash.
// Useful only for dedup-style comparisons, never for semantic search.
func (c *LocalClient) Embed(_ context.Context, text string) ([]float64, error) {
	const dims = 64
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	out := make([]float64, dims)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		out[i] = float64(int64(seed>>11))/float64(1<<52) - 1
	}
	return out, nil
}
