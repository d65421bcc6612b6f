package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
	"github.com/zen-systems/lexgate/pkg/qstore"
)

const previewLimit = 200

type judgeVerdict struct {
	FaithfulnessScore float64 `json:"faithfulness_score"`
	CoveredKeyPoints  int     `json:"covered_key_points"`
	TotalKeyPoints    int     `json:"total_key_points"`
	Reasoning         string  `json:"reasoning"`
}

// runCheck scores one sampled operation and persists the record. Every
// failure is swallowed and logged; nothing propagates to the caller.
func (m *Monitor) runCheck(req CheckRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CheckTimeout)
	defer cancel()

	keyPoints := extractKeyPoints(req.Sources, m.cfg.MaxKeyPoints)
	prompt := buildJudgePrompt(req.Question, req.Answer, keyPoints)

	exec := func(ctx context.Context, p provider.Provider) (string, error) {
		return m.judge(ctx, p, prompt)
	}
	res, err := orchestrator.Orchestrate(ctx, m.orch, exec, orchestrator.Options{
		Category: provider.QualityJudge,
	})
	if err != nil {
		m.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("judge call failed")
		return
	}

	verdict, err := parseJudgeVerdict(res.Value)
	if err != nil {
		m.log.Warn().Err(err).Str("message_id", req.MessageID).Msg("judge verdict unparseable")
		return
	}

	rec := &qstore.Record{
		ID:              uuid.NewString(),
		ConversationID:  req.ConversationID,
		MessageID:       req.MessageID,
		QuestionPreview: preview(req.Question),
		AnswerPreview:   preview(req.Answer),
		SourceCount:     len(req.Sources),
		Score:           verdict.FaithfulnessScore,
		CoveredPoints:   verdict.CoveredKeyPoints,
		TotalPoints:     verdict.TotalKeyPoints,
		Reasoning:       verdict.Reasoning,
		Model:           string(res.Provider),
		Flagged:         verdict.FaithfulnessScore < m.cfg.FlagThreshold,
		CreatedAt:       m.now(),
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		m.log.Error().Err(err).Str("message_id", req.MessageID).Msg("failed to persist quality check")
		return
	}

	if rec.Flagged {
		m.log.Warn().
			Str("message_id", req.MessageID).
			Float64("score", rec.Score).
			Msg("answer flagged for low faithfulness")
	}

	m.evaluateAlert(ctx)
}

func parseJudgeVerdict(content string) (*judgeVerdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, err
	}
	if verdict.FaithfulnessScore < 0 || verdict.FaithfulnessScore > 1 {
		return nil, fmt.Errorf("faithfulness score out of range")
	}
	return &verdict, nil
}

// extractKeyPoints takes one short excerpt per cited source, up to max.
func extractKeyPoints(sources []Source, max int) []string {
	var points []string
	for _, src := range sources {
		if len(points) >= max {
			break
		}
		excerpt := firstSentence(src.Excerpt)
		if excerpt == "" {
			continue
		}
		if src.Title != "" {
			excerpt = src.Title + ": " + excerpt
		}
		points = append(points, excerpt)
	}
	return points
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?\n"); idx > 0 && idx < previewLimit {
		return text[:idx+1]
	}
	return preview(text)
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= previewLimit {
		return text
	}
	cut := previewLimit
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut] + "…"
}

func buildJudgePrompt(question, answer string, keyPoints []string) string {
	var sb strings.Builder
	sb.WriteString("You are a faithfulness judge for a legal assistant.\n")
	sb.WriteString("Score how well the answer is supported by the cited key points.\n")
	sb.WriteString("Return ONLY JSON: {\"faithfulness_score\":0-1,\"covered_key_points\":N,")
	sb.WriteString("\"total_key_points\":N,\"reasoning\":\"...\"}.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:\n")
	sb.WriteString(answer)
	sb.WriteString("\n\nKey points from cited sources:\n")
	for i, point := range keyPoints {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, point))
	}
	return sb.String()
}
