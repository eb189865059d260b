package storage

import "time"

// FeedbackRecord is one helpfulness rating for an answer. AnswerExcerpt
// keeps only the leading portion of the answer so the table stays small.
type FeedbackRecord struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	AnswerExcerpt string    `json:"answer_excerpt"`
	Helpful       bool      `json:"helpful"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
