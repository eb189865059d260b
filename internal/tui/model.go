package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/krwhynot/escalation-helper/internal/search"
	"github.com/krwhynot/escalation-helper/internal/service"
	"github.com/krwhynot/escalation-helper/internal/storage"
)

// QuickSearches are one-keystroke starting points for the most common
// escalation calls. Tab cycles them into the input.
var QuickSearches = []string{
	"Printer not printing kitchen orders",
	"Customer charged twice for one order",
	"Employee can't clock in",
	"Order won't close",
	"Menu item showing wrong price",
	"Cash drawer over or short",
}

// Model is the Bubble Tea model for the interactive helper.
type Model struct {
	assistant service.AssistantService
	feedback  storage.FeedbackStore

	input    textinput.Model
	viewport viewport.Model

	resp     *service.TurnResponse
	status   string
	quickIdx int
	ready    bool
}

// New creates a new TUI model instance. feedback may be nil; the rating keys
// are disabled without it.
func New(assistant service.AssistantService, feedback storage.FeedbackStore) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the issue and press Enter (Tab for quick searches)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		assistant: assistant,
		feedback:  feedback,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Describe the issue you're troubleshooting.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "tab":
			m.input.SetValue(QuickSearches[m.quickIdx])
			m.input.CursorEnd()
			m.quickIdx = (m.quickIdx + 1) % len(QuickSearches)
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "+", "-":
			if m.input.Value() == "" {
				m.rate(msg.String() == "+")
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit interprets the input line. During a clarification an option number
// or "s" (skip) drives the dialog; anything else is a fresh question.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.SetValue("")

	ctx := context.Background()

	if m.clarifying() {
		session := m.resp.Session
		if strings.EqualFold(line, "s") {
			m.apply(m.assistant.Skip(ctx, service.SkipRequest{Session: session}))
			return m, nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(session.Options) {
			m.apply(m.assistant.Select(ctx, service.SelectRequest{
				Session: session,
				Option:  session.Options[n-1],
			}))
			return m, nil
		}
		// Not an option; treat it as a brand new question.
	}

	m.apply(m.assistant.Ask(ctx, service.AskRequest{Query: line}))
	return m, nil
}

// apply folds a turn result into the view state.
func (m *Model) apply(resp service.TurnResponse, err error) {
	if err != nil {
		m.status = errorStyle.Render("Error: " + err.Error())
		m.viewport.SetContent(m.renderBody())
		return
	}
	m.resp = &resp

	switch {
	case m.clarifying():
		m.status = "Pick an option by number, or s to skip."
	case resp.NoResults:
		m.status = "No coverage found. Try the exact error text."
	default:
		m.status = fmt.Sprintf("Answered %q from %d sources. Rate with + or -.", resp.Query, len(resp.Sources))
	}
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// rate records a helpfulness rating for the last answer.
func (m *Model) rate(helpful bool) {
	if m.feedback == nil || m.resp == nil || m.resp.Answer == "" {
		return
	}
	record := &storage.FeedbackRecord{
		Query:         m.resp.Query,
		AnswerExcerpt: m.resp.Answer,
		Helpful:       helpful,
	}
	if err := m.feedback.Add(context.Background(), record); err != nil {
		m.status = errorStyle.Render("Couldn't save feedback: " + err.Error())
		return
	}
	if helpful {
		m.status = "Marked helpful. Thanks."
	} else {
		m.status = "Marked unhelpful. Thanks."
	}
}

func (m Model) clarifying() bool {
	return m.resp != nil && m.resp.Session != nil && m.resp.Session.Question != ""
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Escalation Helper")
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.resp == nil {
		var b strings.Builder
		b.WriteString("Quick searches (Tab to cycle):\n")
		for _, q := range QuickSearches {
			b.WriteString("  - " + q + "\n")
		}
		return b.String()
	}

	if m.clarifying() {
		session := m.resp.Session
		var b strings.Builder
		b.WriteString(questionStyle.Render(session.Question) + "\n\n")
		for i, option := range session.Options {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, option))
		}
		b.WriteString("  s. Skip and answer with what we have\n")
		if session.Hint != "" {
			b.WriteString("\n" + hintStyle.Render(session.Hint) + "\n")
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(m.resp.Answer)
	if len(m.resp.Sources) > 0 {
		b.WriteString("\n\n" + sectionStyle.Render("Sources") + "\n")
		for i, src := range m.resp.Sources {
			b.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, renderGrade(src), sourceName(src)))
		}
	}
	return b.String()
}

func sourceName(src service.ScoredSource) string {
	if name, ok := src.Metadata["source"]; ok && name != "" {
		return name
	}
	first := src.Content
	if len(first) > 60 {
		first = first[:60] + "..."
	}
	return strings.ReplaceAll(first, "\n", " ")
}

// renderGrade formats a source's relevance label with its similarity
// percentage, colored by strength.
func renderGrade(src service.ScoredSource) string {
	label := src.Label
	if src.SimilarityPct != nil {
		label = fmt.Sprintf("%s %.1f%%", label, *src.SimilarityPct)
	}
	switch src.Label {
	case search.LabelExcellent, search.LabelGood:
		return goodStyle.Render("[" + label + "]")
	case search.LabelFair:
		return fairStyle.Render("[" + label + "]")
	case search.LabelWeak:
		return weakStyle.Render("[" + label + "]")
	default:
		return hintStyle.Render("[" + label + "]")
	}
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	questionStyle  = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	fairStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	weakStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
