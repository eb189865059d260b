package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/krwhynot/escalation-helper/internal/llm"
	"github.com/krwhynot/escalation-helper/internal/search"
)

const systemPrompt = `You are a support escalation assistant for point-of-sale database troubleshooting.
You answer questions from support engineers using only the knowledge base excerpts provided.

Rules:
- Base your answer strictly on the provided sources. Do not invent table names, column names, or SQL.
- When a source contains a SQL query or procedure, reproduce it exactly as written.
- If the sources do not cover the question, say so and suggest what to check instead.
- Keep answers concise and actionable: the reader is on a support call.`

const (
	answerTemperature = 0.3
	answerMaxTokens   = 1500
)

// LLMClient is the chat completion surface the generator needs.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Generator turns a query plus its knowledge base matches into a grounded
// answer.
type Generator struct {
	client LLMClient
}

// NewGenerator creates an answer generator backed by the given chat client.
func NewGenerator(client LLMClient) *Generator {
	return &Generator{client: client}
}

// Generate answers the query from the matches. With no matches it returns a
// fixed no-coverage message without calling the model.
func (g *Generator) Generate(ctx context.Context, query string, matches []search.Candidate) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query cannot be empty")
	}
	if len(matches) == 0 {
		return "I couldn't find anything in the knowledge base for that. Try rephrasing with the specific error message or table name.", nil
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(query, matches)},
	}

	reply, err := g.client.ChatWithMessages(ctx, messages, llm.ChatParams{
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return reply, nil
}

// buildUserPrompt lays the matches out as numbered source blocks above the
// question so the model can cite them.
func buildUserPrompt(query string, matches []search.Candidate) string {
	var b strings.Builder
	b.WriteString("Knowledge base excerpts:\n\n")
	for i, match := range matches {
		fmt.Fprintf(&b, "--- Source %d ---\n", i+1)
		if source, ok := match.Metadata["source"]; ok && source != "" {
			fmt.Fprintf(&b, "From: %s\n", source)
		}
		b.WriteString(match.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
