package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_feedback_store.go -package=mocks github.com/krwhynot/escalation-helper/internal/storage FeedbackStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// answerExcerptLimit caps how much of the answer is stored with a rating.
const answerExcerptLimit = 500

// FeedbackStore defines the interface for feedback storage operations.
type FeedbackStore interface {
	// Add records a helpfulness rating. A missing ID is generated.
	Add(ctx context.Context, record *FeedbackRecord) error
	// ListRecent returns up to limit ratings, newest first.
	ListRecent(ctx context.Context, limit int) ([]FeedbackRecord, error)
}

// FeedbackRepo provides methods for feedback operations.
// It implements the FeedbackStore interface.
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo creates a new FeedbackRepo.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Add records a helpfulness rating. The answer excerpt is truncated to
// answerExcerptLimit runes before storage.
func (r *FeedbackRepo) Add(ctx context.Context, record *FeedbackRecord) error {
	if record.Query == "" {
		return fmt.Errorf("feedback query cannot be empty")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	excerpt := record.AnswerExcerpt
	if utf8.RuneCountInString(excerpt) > answerExcerptLimit {
		runes := []rune(excerpt)
		excerpt = string(runes[:answerExcerptLimit])
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, query, answer_excerpt, helpful, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		record.ID, record.Query, excerpt, record.Helpful, record.Comment,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	record.AnswerExcerpt = excerpt
	return nil
}

// ListRecent returns up to limit ratings, newest first.
func (r *FeedbackRepo) ListRecent(ctx context.Context, limit int) ([]FeedbackRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, query, answer_excerpt, helpful, comment, created_at
		 FROM feedback ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []FeedbackRecord
	for rows.Next() {
		var record FeedbackRecord
		var comment sql.NullString
		var createdAtStr string
		if err := rows.Scan(&record.ID, &record.Query, &record.AnswerExcerpt,
			&record.Helpful, &comment, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		record.Comment = comment.String

		record.CreatedAt, err = time.Parse("2006-01-02 15:04:05", createdAtStr)
		if err != nil {
			// SQLite might use a different format
			record.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}

	return records, nil
}
