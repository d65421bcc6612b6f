package llmexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// AnthropicClient completes prompts with Claude models.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient creates a client for the given model. The API key is
// read from the environment by the SDK; passing one here overrides it.
func NewAnthropicClient(model string) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicClient{
		client: anthropic.NewClient(),
		model:  anthropic.Model(model),
	}
}

// Complete sends a single-turn prompt to Claude.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", wrapAnthropicErr(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return "", &orchestrator.ProviderError{
			Provider: provider.Anthropic,
			Err:      fmt.Errorf("anthropic returned no text content"),
		}
	}
	return content, nil
}

func wrapAnthropicErr(err error) error {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return &orchestrator.ProviderError{
		Provider: provider.Anthropic,
		Status:   status,
		Err:      fmt.Errorf("anthropic API error: %w", err),
	}
}
