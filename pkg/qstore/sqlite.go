package qstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quality_checks (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		question_preview TEXT,
		answer_preview TEXT,
		source_count INTEGER DEFAULT 0,
		score REAL NOT NULL,
		covered_points INTEGER DEFAULT 0,
		total_points INTEGER DEFAULT 0,
		reasoning TEXT,
		model TEXT,
		flagged INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_quality_checks_created_at ON quality_checks(created_at);
	CREATE INDEX IF NOT EXISTS idx_quality_checks_flagged ON quality_checks(flagged);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert writes one record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quality_checks (
			id, conversation_id, message_id, question_preview, answer_preview,
			source_count, score, covered_points, total_points, reasoning,
			model, flagged, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.MessageID, rec.QuestionPreview, rec.AnswerPreview,
		rec.SourceCount, rec.Score, rec.CoveredPoints, rec.TotalPoints, rec.Reasoning,
		rec.Model, boolToInt(rec.Flagged), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert quality check: %w", err)
	}
	return nil
}

// AggregateSince computes the rolling aggregate from `since` to now.
func (s *SQLiteStore) AggregateSince(ctx context.Context, since time.Time) (Aggregate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(SUM(flagged), 0)
		FROM quality_checks
		WHERE created_at >= ?`,
		since.UTC(),
	)

	var agg Aggregate
	if err := row.Scan(&agg.Count, &agg.AverageScore, &agg.FlaggedCount); err != nil {
		return Aggregate{}, fmt.Errorf("failed to aggregate quality checks: %w", err)
	}
	return agg, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
