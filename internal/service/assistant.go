package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks github.com/krwhynot/escalation-helper/internal/service Searcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answer_generator.go -package=mocks github.com/krwhynot/escalation-helper/internal/service AnswerGenerator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_assistant_service.go -package=mocks -mock_names=AssistantService=MockAssistantService github.com/krwhynot/escalation-helper/internal/service AssistantService

import (
	"context"
	"strings"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/followup"
	"github.com/krwhynot/escalation-helper/internal/search"
)

// Searcher runs the retrieval pipeline for a query.
// This interface is defined from the service layer's perspective (consumer-first).
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Candidate, error)
}

// AnswerGenerator produces a grounded answer from a query and its matches.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, matches []search.Candidate) (string, error)
}

// AskRequest is a question in the domain layer.
type AskRequest struct {
	Query string `validate:"required"`
}

// SelectRequest applies an option choice to a pending clarification.
type SelectRequest struct {
	Session *followup.Session
	Option  string
}

// SkipRequest abandons a pending clarification.
type SkipRequest struct {
	Session *followup.Session
}

// ScoredSource is a knowledge base match with its relevance label attached.
type ScoredSource struct {
	search.Candidate
	Label string `json:"label"`
}

// TurnResponse is the outcome of one assistant turn. Exactly one of three
// shapes comes back: an answer with sources, a pending clarification
// (Session non-nil, State asking), or NoResults.
type TurnResponse struct {
	Answer    string            `json:"answer,omitempty"`
	Query     string            `json:"query"`
	Sources   []ScoredSource    `json:"sources,omitempty"`
	Session   *followup.Session `json:"session,omitempty"`
	NoResults bool              `json:"no_results,omitempty"`
}

// AssistantService answers troubleshooting questions, running the
// clarification dialog when retrieval comes back weak.
type AssistantService interface {
	// Ask answers a fresh question or opens a clarification dialog.
	Ask(ctx context.Context, req AskRequest) (TurnResponse, error)
	// Select applies an option choice to a pending clarification.
	Select(ctx context.Context, req SelectRequest) (TurnResponse, error)
	// Skip abandons a pending clarification and answers from the cached
	// matches.
	Skip(ctx context.Context, req SkipRequest) (TurnResponse, error)
}

// assistantService implements AssistantService.
type assistantService struct {
	searcher  Searcher
	generator AnswerGenerator
	machine   *followup.Machine
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(searcher Searcher, generator AnswerGenerator, machine *followup.Machine) AssistantService {
	return &assistantService{
		searcher:  searcher,
		generator: generator,
		machine:   machine,
	}
}

// Ask runs retrieval for the query. Confident results are answered directly;
// weak results open a clarification session instead of answering.
func (s *assistantService) Ask(ctx context.Context, req AskRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.WarnContext(ctx, "empty query in ask request")
		return TurnResponse{}, &ValidationError{
			Field:   "query",
			Message: "cannot be empty",
		}
	}

	matches, err := s.searcher.Search(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		return TurnResponse{}, WrapError(err, "failed to search knowledge base")
	}

	if len(matches) == 0 {
		logger.InfoContext(ctx, "no matches for query", "query_length", len(query))
		return s.answerTurn(ctx, query, nil)
	}

	if s.machine.ShouldTrigger(matches) {
		session := s.machine.Begin(query, matches)
		logger.InfoContext(ctx, "opened clarification session",
			"session_id", session.ID, "category", session.Category)
		return TurnResponse{Query: query, Session: session}, nil
	}

	logger.InfoContext(ctx, "answering directly", "matches", len(matches))
	return s.answerTurn(ctx, query, matches)
}

// Select applies an option choice to a pending clarification, re-searching
// with the enriched query when the choice narrows it.
func (s *assistantService) Select(ctx context.Context, req SelectRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Session == nil {
		return TurnResponse{}, &ValidationError{Field: "session", Message: "is required"}
	}
	if req.Option == "" {
		return TurnResponse{}, &ValidationError{Field: "option", Message: "cannot be empty"}
	}

	step, err := s.machine.Select(req.Session, req.Option)
	if err != nil {
		logger.WarnContext(ctx, "rejected selection", "session_id", req.Session.ID, "error", err)
		return TurnResponse{}, WrapError(ErrInvalidInput, err.Error())
	}
	return s.runStep(ctx, req.Session, step)
}

// Skip abandons a pending clarification and answers from the session's
// cached matches under the original query.
func (s *assistantService) Skip(ctx context.Context, req SkipRequest) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Session == nil {
		return TurnResponse{}, &ValidationError{Field: "session", Message: "is required"}
	}

	step, err := s.machine.Skip(req.Session)
	if err != nil {
		logger.WarnContext(ctx, "rejected skip", "session_id", req.Session.ID, "error", err)
		return TurnResponse{}, WrapError(ErrInvalidInput, err.Error())
	}
	return s.runStep(ctx, req.Session, step)
}

// runStep drives a machine step to a response, looping through at most one
// re-search per selection.
func (s *assistantService) runStep(ctx context.Context, session *followup.Session, step followup.Step) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch step.Kind {
	case followup.StepAsk:
		return TurnResponse{Query: session.OriginalQuery, Session: session}, nil

	case followup.StepSearch:
		matches, err := s.searcher.Search(ctx, step.Query)
		if err != nil {
			logger.ErrorContext(ctx, "enriched search failed",
				"session_id", session.ID, "error", err)
			return TurnResponse{}, WrapError(err, "failed to search knowledge base")
		}
		next, err := s.machine.Resolve(session, step.Query, matches)
		if err != nil {
			return TurnResponse{}, WrapError(ErrInvalidInput, err.Error())
		}
		return s.runStep(ctx, session, next)

	case followup.StepFinish:
		logger.InfoContext(ctx, "clarification finished",
			"session_id", session.ID, "turns", session.TurnCount, "matches", len(step.Matches))
		return s.answerTurn(ctx, step.Query, step.Matches)

	default:
		return TurnResponse{}, WrapError(ErrInvalidInput, "unknown dialog step")
	}
}

// answerTurn generates the final answer and labels each source.
func (s *assistantService) answerTurn(ctx context.Context, query string, matches []search.Candidate) (TurnResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reply, err := s.generator.Generate(ctx, query, matches)
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err)
		return TurnResponse{}, WrapError(err, "failed to generate answer")
	}

	resp := TurnResponse{
		Answer:    reply,
		Query:     query,
		NoResults: len(matches) == 0,
	}
	for _, match := range matches {
		resp.Sources = append(resp.Sources, ScoredSource{
			Candidate: match,
			Label:     search.Classify(match.Distance).Label,
		})
	}
	return resp, nil
}
