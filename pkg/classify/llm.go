package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

const llmTextLimit = 4000

type llmPick struct {
	Category       string  `json:"category"`
	Domain         string  `json:"domain"`
	DocumentNature string  `json:"document_nature"`
	Confidence     float64 `json:"confidence"`
	Evidence       string  `json:"evidence"`
}

// llmSignal routes a classification call through the orchestrator and parses
// the JSON response. Call or parse failures degrade to a zero-confidence
// signal; the error is returned so ForceLLM callers can surface exhaustion.
func (e *Engine) llmSignal(ctx context.Context, input Input) (Signal, string, error) {
	degraded := Signal{Source: SourceLLM, Confidence: 0}

	prompt := buildLLMPrompt(input)
	exec := func(ctx context.Context, p provider.Provider) (string, error) {
		return e.llm(ctx, p, prompt)
	}

	res, err := orchestrator.Orchestrate(ctx, e.orch, exec, orchestrator.Options{
		Category: provider.Classification,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("url", input.URL).Msg("llm classification failed, degrading to zero-confidence signal")
		return degraded, "", err
	}

	pick, err := parseLLMResponse(res.Value)
	if err != nil {
		e.log.Warn().Err(err).Str("url", input.URL).Msg("llm classification response unparseable")
		return degraded, "", err
	}

	sig := Signal{
		Source:     SourceLLM,
		Category:   Category(strings.ToLower(pick.Category)),
		Domain:     Domain(strings.ToLower(pick.Domain)),
		Confidence: pick.Confidence,
	}
	if pick.Evidence != "" {
		sig.Evidence = []string{pick.Evidence}
	}
	return sig, pick.DocumentNature, nil
}

// isProviderExhaustion reports whether err is an orchestrator-level hard
// failure, as opposed to a recoverable response-parsing problem.
func isProviderExhaustion(err error) bool {
	var exhausted *orchestrator.ExhaustedError
	var budget *orchestrator.BudgetExceededError
	return errors.As(err, &exhausted) || errors.As(err, &budget)
}

func parseLLMResponse(content string) (*llmPick, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var pick llmPick
	if err := json.Unmarshal([]byte(content), &pick); err != nil {
		return nil, err
	}
	if pick.Category == "" {
		return nil, fmt.Errorf("missing category")
	}
	if pick.Confidence < 0 || pick.Confidence > 1 {
		return nil, fmt.Errorf("confidence out of range")
	}
	return &pick, nil
}

func buildLLMPrompt(input Input) string {
	text := input.Text
	if len(text) > llmTextLimit {
		cut := llmTextLimit
		for cut > 0 && (text[cut]&0xC0) == 0x80 {
			cut--
		}
		text = text[:cut]
	}

	var sb strings.Builder
	sb.WriteString("You classify legal content from Moroccan and French sources.\n")
	sb.WriteString("Return ONLY JSON: {\"category\":\"jurisprudence|legislation|doctrine|procedure|actualite\",")
	sb.WriteString("\"domain\":\"civil|penal|commercial|administratif|social|foncier\",")
	sb.WriteString("\"document_nature\":\"...\",\"confidence\":0-1,\"evidence\":\"...\"}.\n\n")
	if input.URL != "" {
		sb.WriteString(fmt.Sprintf("URL: %s\n", input.URL))
	}
	if len(input.Breadcrumbs) > 0 {
		sb.WriteString(fmt.Sprintf("Breadcrumbs: %s\n", strings.Join(input.Breadcrumbs, " > ")))
	}
	sb.WriteString("\nContent:\n")
	sb.WriteString(text)
	return sb.String()
}
