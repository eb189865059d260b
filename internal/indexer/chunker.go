package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	minChunkRunes = 50
	maxChunkRunes = 700 // targets ~450 tokens for a 512-token embedding model
)

// ArticleChunker splits a markdown knowledge base article into
// heading-scoped chunks using goldmark AST parsing. SQL blocks stay intact
// inside their section so a retrieved chunk carries the full query it
// documents.
type ArticleChunker struct {
	parser goldmark.Markdown
}

// NewArticleChunker creates a new article chunker.
func NewArticleChunker() *ArticleChunker {
	return &ArticleChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Chunk parses the article and returns one chunk per heading section,
// merged and split to the size bounds. Content before the first heading
// lands in a chunk headed by the article title.
func (c *ArticleChunker) Chunk(content []byte, title string) []Chunk {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil
	}

	reader := text.NewReader(content)
	doc := c.parser.Parser().Parse(reader)

	sections := c.collectSections(doc, content, title)
	sections = mergeSmallSections(sections)

	var chunks []Chunk
	for _, section := range sections {
		chunks = append(chunks, splitSection(section)...)
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

type section struct {
	heading string
	text    string
}

// collectSections walks the AST top-down, opening a new section at each
// heading and accumulating the rendered text of everything beneath it.
func (c *ArticleChunker) collectSections(doc ast.Node, content []byte, title string) []section {
	var sections []section
	current := -1

	open := func(heading string) {
		sections = append(sections, section{heading: heading})
		current = len(sections) - 1
	}

	appendText := func(s string) {
		if s == "" {
			return
		}
		if current < 0 {
			open(title)
		}
		sections[current].text += s
	}

	appendBreak := func() {
		if current >= 0 && sections[current].text != "" &&
			!strings.HasSuffix(sections[current].text, "\n") {
			sections[current].text += "\n"
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			open(nodeText(node, content))
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			appendBreak()
			return ast.WalkContinue, nil

		case *ast.Text:
			appendText(string(node.Segment.Value(content)))
			return ast.WalkContinue, nil

		case *ast.String:
			appendText(string(node.Value))
			return ast.WalkContinue, nil

		case *ast.FencedCodeBlock:
			appendBreak()
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				appendText(string(line.Value(content)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock:
			appendBreak()
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				appendText(string(line.Value(content)))
			}
			return ast.WalkSkipChildren, nil

		default:
			// Table extension nodes are not in the core ast package; match
			// them by kind name and flatten rows to pipe-separated lines.
			kind := n.Kind().String()
			if strings.Contains(kind, "TableRow") || strings.Contains(kind, "TableHeader") {
				appendBreak()
				appendText(tableRowText(n, content))
				appendText("\n")
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		}
	})

	out := make([]section, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// mergeSmallSections folds undersized sections into their predecessor so a
// one-line section does not become its own retrieval unit.
func mergeSmallSections(sections []section) []section {
	var out []section
	for _, s := range sections {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			prevRunes := utf8.RuneCountInString(prev.text)
			curRunes := utf8.RuneCountInString(s.text)
			if (prevRunes < minChunkRunes || curRunes < minChunkRunes) &&
				prevRunes+curRunes <= maxChunkRunes {
				prev.text += "\n\n"
				if s.heading != "" {
					prev.text += s.heading + "\n"
				}
				prev.text += s.text
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// splitSection cuts an oversized section at paragraph, then line, then
// sentence boundaries. Size is measured in runes to track embedding token
// estimates.
func splitSection(s section) []Chunk {
	body := strings.TrimSpace(s.text)
	runes := []rune(body)
	if len(runes) <= maxChunkRunes {
		return []Chunk{{Heading: s.heading, Text: body}}
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + maxChunkRunes
		if end >= len(runes) {
			chunks = append(chunks, Chunk{Heading: s.heading, Text: string(runes[start:])})
			break
		}

		window := string(runes[start:end])
		cut := end
		if b := strings.LastIndex(window, "\n\n"); b != -1 {
			cut = start + utf8.RuneCountInString(window[:b]) + 2
		} else if b := strings.LastIndex(window, "\n"); b != -1 {
			cut = start + utf8.RuneCountInString(window[:b]) + 1
		} else if b := strings.LastIndex(window, ". "); b != -1 {
			cut = start + utf8.RuneCountInString(window[:b]) + 2
		}

		chunks = append(chunks, Chunk{Heading: s.heading, Text: string(runes[start:cut])})
		start = cut
	}
	return chunks
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// tableRowText flattens a table row's cells into a pipe-separated line.
func tableRowText(row ast.Node, content []byte) string {
	var b strings.Builder
	cells := 0
	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if strings.Contains(node.Kind().String(), "TableCell") {
			if cells > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(nodeText(node, content))
			cells++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
