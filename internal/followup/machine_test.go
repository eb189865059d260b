package followup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/krwhynot/escalation-helper/internal/search"
)

func matchesAt(distances ...float64) []search.Candidate {
	matches := make([]search.Candidate, len(distances))
	for i, d := range distances {
		d := d
		matches[i] = search.Candidate{
			Content:  fmt.Sprintf("match %d", i),
			Distance: &d,
		}
	}
	return matches
}

func newTestMachine() *Machine {
	return NewMachine(DefaultTaxonomy(), 0.30, 4)
}

func TestShouldTrigger(t *testing.T) {
	m := newTestMachine()

	tests := []struct {
		name    string
		matches []search.Candidate
		want    bool
	}{
		{"weak top match", matchesAt(0.42, 0.55), true},
		{"confident top match", matchesAt(0.18, 0.42), false},
		{"exactly at threshold", matchesAt(0.30), false},
		{"just above threshold", matchesAt(0.31), true},
		{"no matches", nil, false},
		{"no distance", []search.Candidate{{Content: "match"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ShouldTrigger(tt.matches); got != tt.want {
				t.Errorf("ShouldTrigger() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBegin(t *testing.T) {
	m := newTestMachine()
	matches := matchesAt(0.45, 0.50)

	s := m.Begin("printer not working", matches)

	if s.ID == "" {
		t.Error("session has no ID")
	}
	if s.State != StateAsking {
		t.Errorf("State = %s, want %s", s.State, StateAsking)
	}
	if s.Category != CategoryPrinter {
		t.Errorf("Category = %s, want %s", s.Category, CategoryPrinter)
	}
	if s.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0", s.TurnCount)
	}
	if s.Question == "" || len(s.Options) == 0 {
		t.Error("session has no pending question")
	}
	if len(s.CachedMatches) != 2 {
		t.Errorf("CachedMatches has %d entries, want 2", len(s.CachedMatches))
	}
}

func TestSelectEnrichmentThenConfident(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("printer not working", matchesAt(0.45))

	step, err := m.Select(s, "Nothing prints at all")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if step.Kind != StepSearch {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepSearch)
	}
	if !strings.HasPrefix(step.Query, "printer not working") {
		t.Errorf("enriched query %q does not start with the original query", step.Query)
	}
	if !strings.Contains(step.Query, "printer offline not printing") {
		t.Errorf("enriched query %q is missing the enrichment phrase", step.Query)
	}
	if s.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1", s.TurnCount)
	}

	step, err = m.Resolve(s, step.Query, matchesAt(0.15, 0.22))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if step.Kind != StepFinish {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepFinish)
	}
	if s.State != StateDone {
		t.Errorf("State = %s, want %s", s.State, StateDone)
	}
	if len(step.Matches) != 2 {
		t.Errorf("final matches has %d entries, want 2", len(step.Matches))
	}
	if step.Query == "printer not working" {
		t.Error("final query should be the enriched query, got the original")
	}
}

func TestSomethingElseTerminatesWithCachedMatches(t *testing.T) {
	m := newTestMachine()
	cached := matchesAt(0.45, 0.50)
	s := m.Begin("printer not working", cached)

	step, err := m.Select(s, "Something else")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if step.Kind != StepFinish {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepFinish)
	}
	if step.Query != "printer not working" {
		t.Errorf("final query = %q, want the original query", step.Query)
	}
	if len(step.Matches) != len(cached) {
		t.Errorf("final matches has %d entries, want cached %d", len(step.Matches), len(cached))
	}
	if s.State != StateDone {
		t.Errorf("State = %s, want %s", s.State, StateDone)
	}
	if s.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0 (empty enrichment consumes no turn)", s.TurnCount)
	}
}

func TestSkipTerminatesWithCachedMatches(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("printer not working", matchesAt(0.45))

	step, err := m.Skip(s)
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if step.Kind != StepFinish {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepFinish)
	}
	if step.Query != "printer not working" {
		t.Errorf("final query = %q, want the original query", step.Query)
	}
	if len(step.Matches) != 1 {
		t.Errorf("final matches has %d entries, want 1", len(step.Matches))
	}
}

func TestDefaultCategoryRedirect(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("register acting weird", matchesAt(0.48))

	if s.Category != CategoryDefault {
		t.Fatalf("Category = %s, want %s", s.Category, CategoryDefault)
	}

	step, err := m.Select(s, "Printing or receipts")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if step.Kind != StepAsk {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepAsk)
	}
	if s.Category != CategoryPrinter {
		t.Errorf("Category = %s, want %s after redirect", s.Category, CategoryPrinter)
	}
	if s.Question != DefaultTaxonomy().Prompt(CategoryPrinter).Question {
		t.Errorf("pending question = %q, want the printer question", s.Question)
	}
	if s.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1 (redirect consumes a turn)", s.TurnCount)
	}

	// The redirected question accepts the target category's options.
	step, err = m.Select(s, "Receipts print twice")
	if err != nil {
		t.Fatalf("Select() after redirect error = %v", err)
	}
	if step.Kind != StepSearch {
		t.Errorf("Kind = %s, want %s", step.Kind, StepSearch)
	}
}

func TestTurnBudgetForcesTermination(t *testing.T) {
	m := NewMachine(DefaultTaxonomy(), 0.30, 4)
	s := m.Begin("printer not working", matchesAt(0.45))

	var step Step
	var err error
	for round := 1; ; round++ {
		if round > 10 {
			t.Fatal("dialog did not terminate within 10 rounds")
		}
		step, err = m.Select(s, "Nothing prints at all")
		if err != nil {
			t.Fatalf("Select() round %d error = %v", round, err)
		}
		if step.Kind != StepSearch {
			t.Fatalf("Kind = %s on round %d, want %s", step.Kind, round, StepSearch)
		}
		// Every re-search keeps coming back weak.
		step, err = m.Resolve(s, step.Query, matchesAt(0.44))
		if err != nil {
			t.Fatalf("Resolve() round %d error = %v", round, err)
		}
		if step.Kind == StepFinish {
			if round != 4 {
				t.Errorf("dialog terminated on round %d, want round 4", round)
			}
			break
		}
	}
	if s.State != StateDone {
		t.Errorf("State = %s, want %s", s.State, StateDone)
	}
	if s.TurnCount != 4 {
		t.Errorf("TurnCount = %d, want 4", s.TurnCount)
	}
	if len(step.Matches) != 1 {
		t.Errorf("final matches has %d entries, want the last search results", len(step.Matches))
	}
}

func TestResolveWeakResultsReAsksAndUpdatesCache(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("printer not working", matchesAt(0.45, 0.50))

	step, err := m.Select(s, "Nothing prints at all")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	step, err = m.Resolve(s, step.Query, matchesAt(0.40))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if step.Kind != StepAsk {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepAsk)
	}
	if len(s.CachedMatches) != 1 {
		t.Errorf("CachedMatches has %d entries, want the latest results", len(s.CachedMatches))
	}
	if s.Question == "" {
		t.Error("session should still have a pending question")
	}
}

func TestResolveWeakResultsRedetectsCategory(t *testing.T) {
	m := newTestMachine()

	// "payment check issue" ties payment and order at one keyword each;
	// payment is defined first and wins.
	s := m.Begin("payment check issue", matchesAt(0.48))
	if s.Category != CategoryPayment {
		t.Fatalf("Category = %s, want %s", s.Category, CategoryPayment)
	}

	step, err := m.Select(s, "Payment missing from an order")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if step.Kind != StepSearch {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepSearch)
	}

	// The enrichment phrase shifts the keyword balance to order ("order" and
	// "check" both hit); a weak re-search must continue under that category.
	step, err = m.Resolve(s, step.Query, matchesAt(0.44))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if step.Kind != StepAsk {
		t.Fatalf("Kind = %s, want %s", step.Kind, StepAsk)
	}
	if s.Category != CategoryOrder {
		t.Errorf("Category = %s, want %s after weak re-search", s.Category, CategoryOrder)
	}
	want := DefaultTaxonomy().Prompt(CategoryOrder)
	if s.Question != want.Question {
		t.Errorf("pending question = %q, want the order question", s.Question)
	}
	if len(s.Options) != len(want.Options) {
		t.Errorf("pending options = %d, want %d", len(s.Options), len(want.Options))
	}

	// The re-bound question accepts the new category's options.
	if _, err := m.Select(s, "Order won't close"); err != nil {
		t.Errorf("Select() on re-bound question error = %v", err)
	}
}

func TestSelectRejectsUnknownOption(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("printer not working", matchesAt(0.45))

	if _, err := m.Select(s, "Not a real option"); err == nil {
		t.Error("Select() expected error for unknown option, got nil")
	}
	if s.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0 after rejected option", s.TurnCount)
	}
}

func TestSelectRejectsFinishedSession(t *testing.T) {
	m := newTestMachine()
	s := m.Begin("printer not working", matchesAt(0.45))
	if _, err := m.Skip(s); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}

	if _, err := m.Select(s, "Nothing prints at all"); err == nil {
		t.Error("Select() expected error on finished session, got nil")
	}
	if _, err := m.Skip(s); err == nil {
		t.Error("Skip() expected error on finished session, got nil")
	}
	if _, err := m.Resolve(s, "q", nil); err == nil {
		t.Error("Resolve() expected error on finished session, got nil")
	}
}
