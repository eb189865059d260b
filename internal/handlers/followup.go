package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/followup"
	"github.com/krwhynot/escalation-helper/internal/service"
)

// FollowupHandler handles the select and skip legs of a clarification
// dialog. The session travels in the request body; the server keeps no
// dialog state between calls.
type FollowupHandler struct {
	assistant service.AssistantService
}

// NewFollowupHandler creates a new FollowupHandler.
func NewFollowupHandler(assistant service.AssistantService) *FollowupHandler {
	return &FollowupHandler{assistant: assistant}
}

// FollowupRequest represents the HTTP request payload for a clarification
// turn. Option is required for select and ignored for skip.
//
// swagger:model FollowupRequest
type FollowupRequest struct {
	Session *followup.Session `json:"session"`
	Option  string            `json:"option,omitempty"`
}

// Select applies an option choice to a pending clarification.
//
// swagger:route POST /api/v1/followup/select selectOption
func (h *FollowupHandler) Select(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.assistant.Select(r.Context(), service.SelectRequest{
		Session: req.Session,
		Option:  req.Option,
	})
	if err != nil {
		handleServiceError(r.Context(), w, err, "Failed to process selection")
		return
	}
	writeJSON(r.Context(), w, resp)
}

// Skip abandons a pending clarification and answers from the cached
// matches.
//
// swagger:route POST /api/v1/followup/skip skipFollowup
func (h *FollowupHandler) Skip(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.assistant.Skip(r.Context(), service.SkipRequest{Session: req.Session})
	if err != nil {
		handleServiceError(r.Context(), w, err, "Failed to process skip")
		return
	}
	writeJSON(r.Context(), w, resp)
}

func (h *FollowupHandler) decode(w http.ResponseWriter, r *http.Request) (FollowupRequest, bool) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return FollowupRequest{}, false
	}

	var req FollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return FollowupRequest{}, false
	}
	if req.Session == nil {
		logger.WarnContext(ctx, "missing session in followup request")
		writeError(w, http.StatusBadRequest, "Session is required")
		return FollowupRequest{}, false
	}
	return req, true
}
