package qstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord(id string, score float64, flagged bool, createdAt time.Time) *Record {
	return &Record{
		ID:              id,
		ConversationID:  "conv-1",
		MessageID:       "msg-" + id,
		QuestionPreview: "Quelle est la procédure ?",
		AnswerPreview:   "La requête est déposée au greffe.",
		SourceCount:     2,
		Score:           score,
		CoveredPoints:   3,
		TotalPoints:     4,
		Reasoning:       "answer matches the cited sources",
		Model:           "openai",
		Flagged:         flagged,
		CreatedAt:       createdAt,
	}
}

func TestFlaggedRate(t *testing.T) {
	tests := []struct {
		name string
		agg  Aggregate
		want float64
	}{
		{"empty window", Aggregate{}, 0},
		{"no flags", Aggregate{Count: 10}, 0},
		{"three of ten", Aggregate{Count: 10, FlaggedCount: 3}, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.agg.FlaggedRate(); got != tt.want {
				t.Fatalf("FlaggedRate() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMemoryStoreAggregateWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	inside := []struct {
		score   float64
		flagged bool
	}{
		{0.9, false},
		{0.3, true},
		{0.6, false},
	}
	for i, rec := range inside {
		if err := store.Insert(ctx, sampleRecord(fmt.Sprintf("in-%d", i), rec.score, rec.flagged, now)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	// Outside the window, must be ignored.
	if err := store.Insert(ctx, sampleRecord("old", 0.1, true, now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	agg, err := store.AggregateSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Count != 3 {
		t.Fatalf("count = %d, want 3", agg.Count)
	}
	if agg.FlaggedCount != 1 {
		t.Fatalf("flagged = %d, want 1", agg.FlaggedCount)
	}
	want := (0.9 + 0.3 + 0.6) / 3
	if diff := agg.AverageScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("average = %f, want %f", agg.AverageScore, want)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "quality.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	if err := store.Insert(ctx, sampleRecord("a", 0.8, false, now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, sampleRecord("b", 0.2, true, now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, sampleRecord("old", 0.5, true, now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	agg, err := store.AggregateSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Count != 2 {
		t.Fatalf("count = %d, want 2", agg.Count)
	}
	if agg.FlaggedCount != 1 {
		t.Fatalf("flagged = %d, want 1", agg.FlaggedCount)
	}
	if diff := agg.AverageScore - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("average = %f, want 0.5", agg.AverageScore)
	}
}

func TestSQLiteStoreDuplicateIDRejected(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "quality.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rec := sampleRecord("dup", 0.8, false, time.Now())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.Insert(ctx, rec); err == nil {
		t.Fatal("second insert with the same id must fail")
	}
}

func TestSQLiteStoreEmptyAggregate(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "quality.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	agg, err := store.AggregateSince(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Count != 0 || agg.FlaggedCount != 0 || agg.AverageScore != 0 {
		t.Fatalf("empty aggregate = %+v, want zeroes", agg)
	}
}
