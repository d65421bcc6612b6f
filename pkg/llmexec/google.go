package llmexec

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// GoogleClient completes prompts and computes embeddings with Gemini models.
type GoogleClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGoogleClient creates a Gemini client.
func NewGoogleClient(ctx context.Context, apiKey, model string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	if model == "" {
		model = "gemini-2.0-pro"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleClient{
		client:         client,
		model:          model,
		embeddingModel: "text-embedding-004",
	}, nil
}

// Complete sends a single-turn prompt to Gemini.
func (c *GoogleClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", wrapGoogleErr(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &orchestrator.ProviderError{
			Provider: provider.Google,
			Err:      fmt.Errorf("google returned no candidates"),
		}
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	return content, nil
}

// Embed computes an embedding vector for text.
func (c *GoogleClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, wrapGoogleErr(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, &orchestrator.ProviderError{
			Provider: provider.Google,
			Err:      fmt.Errorf("google returned no embeddings"),
		}
	}
	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func wrapGoogleErr(err error) error {
	status := 0
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}
	return &orchestrator.ProviderError{
		Provider: provider.Google,
		Status:   status,
		Err:      fmt.Errorf("google API error: %w", err),
	}
}
