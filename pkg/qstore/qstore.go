// Package qstore persists quality-check records and serves the rolling
// aggregates the alerter reads.
package qstore

import (
	"context"
	"time"
)

// Record is one persisted faithfulness check. Written once, never mutated.
type Record struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	MessageID       string    `json:"message_id"`
	QuestionPreview string    `json:"question_preview"`
	AnswerPreview   string    `json:"answer_preview"`
	SourceCount     int       `json:"source_count"`
	Score           float64   `json:"score"`
	CoveredPoints   int       `json:"covered_points"`
	TotalPoints     int       `json:"total_points"`
	Reasoning       string    `json:"reasoning"`
	Model           string    `json:"model"`
	Flagged         bool      `json:"flagged"`
	CreatedAt       time.Time `json:"created_at"`
}

// Aggregate summarizes records inside a time window.
type Aggregate struct {
	Count        int
	AverageScore float64
	FlaggedCount int
}

// FlaggedRate returns the share of flagged records, or 0 when empty.
func (a Aggregate) FlaggedRate() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.FlaggedCount) / float64(a.Count)
}

// Store persists records. One insert per check, one aggregate read per
// alert evaluation.
type Store interface {
	Insert(ctx context.Context, rec *Record) error
	AggregateSince(ctx context.Context, since time.Time) (Aggregate, error)
}
