package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/storage"
)

// FeedbackHandler records and lists answer helpfulness ratings.
type FeedbackHandler struct {
	feedback storage.FeedbackStore
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedback storage.FeedbackStore) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// FeedbackRequest represents the HTTP request payload for a rating.
//
// swagger:model FeedbackRequest
type FeedbackRequest struct {
	Query         string `json:"query"`
	AnswerExcerpt string `json:"answer_excerpt"`
	Helpful       bool   `json:"helpful"`
	Comment       string `json:"comment,omitempty"`
}

// Add records a helpfulness rating for an answer.
//
// swagger:route POST /api/v1/feedback addFeedback
func (h *FeedbackHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		logger.WarnContext(ctx, "empty query in feedback request")
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	record := &storage.FeedbackRecord{
		Query:         req.Query,
		AnswerExcerpt: req.AnswerExcerpt,
		Helpful:       req.Helpful,
		Comment:       req.Comment,
	}
	if err := h.feedback.Add(ctx, record); err != nil {
		logger.ErrorContext(ctx, "failed to record feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record feedback")
		return
	}

	logger.InfoContext(ctx, "recorded feedback", "feedback_id", record.ID, "helpful", record.Helpful)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(record)
}

// List returns recent ratings, newest first. The limit query parameter caps
// the page size.
//
// swagger:route GET /api/v1/feedback listFeedback
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.feedback.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list feedback")
		return
	}
	if records == nil {
		records = []storage.FeedbackRecord{}
	}
	writeJSON(ctx, w, records)
}
