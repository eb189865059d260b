package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/service"
)

// AskHandler handles HTTP requests for troubleshooting questions.
type AskHandler struct {
	assistant service.AssistantService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(assistant service.AssistantService) *AskHandler {
	return &AskHandler{assistant: assistant}
}

// AskRequest represents the HTTP request payload for a question.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
}

// ServeHTTP handles HTTP requests for troubleshooting questions.
//
// Ask a question against the knowledge base. Confident retrievals come back
// with an answer and labeled sources; weak retrievals come back with a
// clarifying question and a session to round-trip through the follow-up
// endpoints.
//
// swagger:route POST /api/v1/ask askQuestion
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	resp, err := h.assistant.Ask(ctx, service.AskRequest{Query: req.Question})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process question")
		return
	}

	writeJSON(ctx, w, resp)
}
