package followup

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/krwhynot/escalation-helper/internal/search"
)

// State is the dialog state of a clarification session.
type State string

const (
	// StateAsking means a question is pending and the next input must be an
	// option selection or a skip.
	StateAsking State = "asking"
	// StateDone means the session has terminated and holds final results.
	StateDone State = "done"
)

// Session carries the state of one clarification dialog. It is returned to
// the caller verbatim and round-trips through the HTTP API as JSON, so the
// machine never keeps sessions in memory.
type Session struct {
	ID            string             `json:"id"`
	State         State              `json:"state"`
	OriginalQuery string             `json:"original_query"`
	Category      Category           `json:"category"`
	TurnCount     int                `json:"turn_count"`
	EnrichedTerms []string           `json:"enriched_terms,omitempty"`
	Question      string             `json:"question,omitempty"`
	Options       []string           `json:"options,omitempty"`
	Hint          string             `json:"hint,omitempty"`
	CachedMatches []search.Candidate `json:"cached_matches,omitempty"`
}

// StepKind tells the caller what to do after a machine transition.
type StepKind string

const (
	// StepAsk means present the session's question and options and wait for
	// a selection.
	StepAsk StepKind = "ask"
	// StepSearch means run a search with Step.Query and feed the results
	// back through Resolve.
	StepSearch StepKind = "search"
	// StepFinish means the dialog is over: answer using Step.Matches under
	// Step.Query.
	StepFinish StepKind = "finish"
)

// Step is the outcome of a machine transition. The machine itself never
// searches or answers; it tells the caller which of those to do next.
type Step struct {
	Kind    StepKind
	Query   string
	Matches []search.Candidate
}

// Machine implements the bounded clarification dialog. It is stateless;
// all dialog state lives in the Session.
type Machine struct {
	taxonomy  *Taxonomy
	threshold float64
	maxTurns  int
}

// NewMachine builds a clarification machine. threshold is the distance above
// which results count as too weak to answer from; maxTurns caps the number
// of clarification rounds in a session.
func NewMachine(taxonomy *Taxonomy, threshold float64, maxTurns int) *Machine {
	return &Machine{taxonomy: taxonomy, threshold: threshold, maxTurns: maxTurns}
}

// ShouldTrigger reports whether the results are weak enough to start a
// clarification dialog: the best match's distance is strictly above the
// trigger threshold. Empty results and results without distances never
// trigger; those are handled as no-result and pass-through cases upstream.
func (m *Machine) ShouldTrigger(matches []search.Candidate) bool {
	if len(matches) == 0 {
		return false
	}
	top := matches[0].Distance
	if top == nil {
		return false
	}
	return *top > m.threshold
}

// Begin opens a session for a weak-result query: it detects the category,
// caches the current matches as the fallback answer set, and asks the
// category's question. TurnCount starts at zero; only selections consume
// turns.
func (m *Machine) Begin(query string, matches []search.Candidate) *Session {
	category := m.taxonomy.Detect(query)
	prompt := m.taxonomy.Prompt(category)
	return &Session{
		ID:            uuid.NewString(),
		State:         StateAsking,
		OriginalQuery: query,
		Category:      category,
		Question:      prompt.Question,
		Options:       prompt.Options,
		Hint:          prompt.Hint,
		CachedMatches: matches,
	}
}

// Select applies an option choice to an asking session.
//
// Three cases, in order: an option with no enrichment phrase ("Something
// else") terminates with the cached matches; on the default category an
// enrichment naming another category redirects the session to that
// category's question; otherwise the phrase is appended to the enrichment
// terms and the caller must re-search with the enriched query. Every
// selection consumes a turn, and the turn budget is a hard ceiling on all
// three cases.
func (m *Machine) Select(s *Session, option string) (Step, error) {
	if s.State != StateAsking {
		return Step{}, fmt.Errorf("session %s is not awaiting a selection", s.ID)
	}
	prompt := m.taxonomy.Prompt(s.Category)
	phrase, ok := prompt.Enrichment[option]
	if !ok {
		return Step{}, fmt.Errorf("unknown option %q for category %s", option, s.Category)
	}

	if phrase == "" {
		return m.finish(s, s.OriginalQuery, s.CachedMatches), nil
	}

	s.TurnCount++

	if s.Category == CategoryDefault && m.taxonomy.Has(Category(phrase)) {
		if s.TurnCount >= m.maxTurns {
			return m.finish(s, s.OriginalQuery, s.CachedMatches), nil
		}
		s.Category = Category(phrase)
		next := m.taxonomy.Prompt(s.Category)
		s.Question = next.Question
		s.Options = next.Options
		s.Hint = next.Hint
		return Step{Kind: StepAsk}, nil
	}

	s.EnrichedTerms = append(s.EnrichedTerms, phrase)
	return Step{Kind: StepSearch, Query: Enrich(s.OriginalQuery, s.EnrichedTerms)}, nil
}

// Skip abandons the dialog: the session terminates with the cached matches
// under the original query.
func (m *Machine) Skip(s *Session) (Step, error) {
	if s.State != StateAsking {
		return Step{}, fmt.Errorf("session %s is not awaiting a selection", s.ID)
	}
	return m.finish(s, s.OriginalQuery, s.CachedMatches), nil
}

// Resolve feeds re-search results back into the session. The dialog
// terminates when the enriched results are confident or the turn budget is
// spent; otherwise the new results are cached as the fallback, the category
// is detected afresh from the enriched query, and that category's question
// is asked. Enrichment terms can shift the dominant keywords, so a session
// that started under one category may continue under another.
func (m *Machine) Resolve(s *Session, query string, matches []search.Candidate) (Step, error) {
	if s.State != StateAsking {
		return Step{}, fmt.Errorf("session %s is not awaiting results", s.ID)
	}
	if !m.ShouldTrigger(matches) || s.TurnCount >= m.maxTurns {
		return m.finish(s, query, matches), nil
	}
	if len(matches) > 0 {
		s.CachedMatches = matches
	}
	s.Category = m.taxonomy.Detect(query)
	prompt := m.taxonomy.Prompt(s.Category)
	s.Question = prompt.Question
	s.Options = prompt.Options
	s.Hint = prompt.Hint
	return Step{Kind: StepAsk}, nil
}

func (m *Machine) finish(s *Session, query string, matches []search.Candidate) Step {
	s.State = StateDone
	s.Question = ""
	s.Options = nil
	s.Hint = ""
	return Step{Kind: StepFinish, Query: query, Matches: matches}
}
