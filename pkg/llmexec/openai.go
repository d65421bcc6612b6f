package llmexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// OpenAIClient completes prompts and computes embeddings with OpenAI models.
type OpenAIClient struct {
	client         openai.Client
	model          openai.ChatModel
	embeddingModel openai.EmbeddingModel
}

// NewOpenAIClient creates a client for the given chat model. The API key is
// read from the environment by the SDK.
func NewOpenAIClient(model string) *OpenAIClient {
	if model == "" {
		model = "gpt-5.2-instant"
	}
	return &OpenAIClient{
		client:         openai.NewClient(),
		model:          openai.ChatModel(model),
		embeddingModel: openai.EmbeddingModelTextEmbedding3Small,
	}
}

// Complete sends a single-turn prompt to OpenAI.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return "", wrapOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", &orchestrator.ProviderError{
			Provider: provider.OpenAI,
			Err:      fmt.Errorf("openai returned no choices"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed computes an embedding vector for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, wrapOpenAIErr(err)
	}
	if len(resp.Data) == 0 {
		return nil, &orchestrator.ProviderError{
			Provider: provider.OpenAI,
			Err:      fmt.Errorf("openai returned no embedding data"),
		}
	}
	return resp.Data[0].Embedding, nil
}

func wrapOpenAIErr(err error) error {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return &orchestrator.ProviderError{
		Provider: provider.OpenAI,
		Status:   status,
		Err:      fmt.Errorf("openai API error: %w", err),
	}
}
