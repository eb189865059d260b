package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

// embedBatchSize caps how many chunks go into one embeddings request.
const embedBatchSize = 32

// Embedder generates embedding vectors for texts.
// This interface is defined from the pipeline's perspective (consumer-first).
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the slice of the vector store the pipeline needs.
type VectorIndex interface {
	RecreateCollection(ctx context.Context, collection string, vectorSize int) error
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
}

// Pipeline rebuilds the knowledge base collection from a directory of
// markdown articles. A run is a full rebuild: the collection is dropped and
// recreated so deleted articles disappear from the index.
type Pipeline struct {
	embedder   Embedder
	index      VectorIndex
	collection string
	vectorSize int
	chunker    *ArticleChunker
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(embedder Embedder, index VectorIndex, collection string, vectorSize int) *Pipeline {
	return &Pipeline{
		embedder:   embedder,
		index:      index,
		collection: collection,
		vectorSize: vectorSize,
		chunker:    NewArticleChunker(),
	}
}

// Run indexes every .md file under dataDir into the collection.
func (p *Pipeline) Run(ctx context.Context, dataDir string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	paths, err := listArticles(dataDir)
	if err != nil {
		return Stats{}, err
	}
	if len(paths) == 0 {
		return Stats{}, fmt.Errorf("no markdown articles found under %s", dataDir)
	}

	if err := p.index.RecreateCollection(ctx, p.collection, p.vectorSize); err != nil {
		return Stats{}, fmt.Errorf("failed to recreate collection: %w", err)
	}

	var stats Stats
	var pending []vectorstore.Point
	var pendingTexts []string

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		vectors, err := p.embedder.EmbedTexts(ctx, pendingTexts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(pending) {
			return fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(pending))
		}
		for i := range pending {
			pending[i].Vec = vectors[i]
		}
		if err := p.index.Upsert(ctx, p.collection, pending); err != nil {
			return fmt.Errorf("failed to upsert chunks: %w", err)
		}
		stats.Chunks += len(pending)
		pending = pending[:0]
		pendingTexts = pendingTexts[:0]
		return nil
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		rel = filepath.ToSlash(rel)

		chunks := p.chunker.Chunk(content, titleFromFilename(path))
		if len(chunks) == 0 {
			logger.WarnContext(ctx, "skipping empty article", "path", rel)
			stats.Skipped++
			continue
		}

		for _, chunk := range chunks {
			text := chunk.Text
			if chunk.Heading != "" {
				text = chunk.Heading + "\n" + text
			}
			pending = append(pending, vectorstore.Point{
				ID: uuid.NewString(),
				Meta: map[string]any{
					"content":     text,
					"source":      rel,
					"heading":     chunk.Heading,
					"chunk_index": chunk.Index,
				},
			})
			pendingTexts = append(pendingTexts, text)

			if len(pending) >= embedBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}

		stats.Documents++
		logger.InfoContext(ctx, "indexed article", "path", rel, "chunks", len(chunks))
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// listArticles collects .md files under dir in walk order.
func listArticles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return paths, nil
}

// titleFromFilename derives an article title from the filename: extension
// stripped, separators spaced, words capitalized.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
