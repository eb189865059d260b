package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/llm"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

// Retriever issues a similarity query against the knowledge-base index and
// returns raw candidates ordered by ascending distance, unfiltered.
// Index errors propagate to the caller; retry policy belongs to the caller.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Candidate, error)
}

// indexRetriever embeds the query text and searches the vector store.
type indexRetriever struct {
	embedder   *llm.EmbeddingsClient
	store      vectorstore.VectorStore
	collection string
}

// NewRetriever creates a Retriever backed by the given embedder and vector store.
func NewRetriever(embedder *llm.EmbeddingsClient, store vectorstore.VectorStore, collection string) Retriever {
	return &indexRetriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// Retrieve embeds the query, searches the index, and maps hits to candidates.
// The index reports cosine similarity; candidates carry cosine distance
// (1 - similarity) so the whole pipeline speaks one unit.
func (r *indexRetriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	embeddings, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	hits, err := r.store.Search(ctx, r.collection, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		content, _ := hit.Meta["content"].(string)
		metadata := make(map[string]string)
		for key, value := range hit.Meta {
			if key == "content" {
				continue
			}
			metadata[key] = fmt.Sprintf("%v", value)
		}

		distance := 1 - float64(hit.Score)
		candidates = append(candidates, NewCandidate(content, metadata, &distance))
	}

	// The index returns hits by descending similarity already; the stable
	// sort keeps the native order for equal distances.
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Distance < *candidates[j].Distance
	})

	logger.DebugContext(ctx, "retrieved candidates", "query_length", len(query), "k", k, "count", len(candidates))
	return candidates, nil
}
