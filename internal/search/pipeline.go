package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/rerank"
)

const (
	// preFilterSlack relaxes the distance cutoff before reranking so the
	// cross-encoder can still consider borderline candidates.
	preFilterSlack = 0.10
	// preFilterCeiling caps the relaxed cutoff.
	preFilterCeiling = 0.60
)

// Options tunes a search pipeline.
type Options struct {
	RetrieveK         int     // candidates requested from the index
	ReturnK           int     // max candidates returned
	DistanceThreshold float64 // post-filter confidence cutoff
}

// Pipeline is the two-stage retrieval pipeline: retrieve, pre-filter by a
// relaxed distance bound, optionally rerank with a cross-encoder, then apply
// the strict distance threshold and truncate to ReturnK.
type Pipeline struct {
	retriever Retriever
	encoder   rerank.CrossEncoder
	opts      Options
}

// NewPipeline creates a search pipeline. Pass rerank.Disabled{} as the
// encoder to run on retrieval order alone.
func NewPipeline(retriever Retriever, encoder rerank.CrossEncoder, opts Options) *Pipeline {
	if encoder == nil {
		encoder = rerank.Disabled{}
	}
	return &Pipeline{
		retriever: retriever,
		encoder:   encoder,
		opts:      opts,
	}
}

// PreFilterCutoff returns the relaxed distance bound applied before reranking:
// min(threshold + 0.10, 0.60).
func PreFilterCutoff(distanceThreshold float64) float64 {
	cutoff := distanceThreshold + preFilterSlack
	if cutoff > preFilterCeiling {
		return preFilterCeiling
	}
	return cutoff
}

// Search runs the full pipeline for one query. Index failures propagate;
// reranker failures degrade to retrieval order and are only logged. An empty
// result is a valid outcome, not an error.
func (p *Pipeline) Search(ctx context.Context, query string) ([]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)

	candidates, err := p.retriever.Retrieve(ctx, query, p.opts.RetrieveK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(candidates) == 0 {
		return []Candidate{}, nil
	}

	// Stage 1: pre-filter by the relaxed bound. Candidates without a
	// distance are not distance-filterable and always survive.
	cutoff := PreFilterCutoff(p.opts.DistanceThreshold)
	survivors := candidates[:0:0]
	for _, c := range candidates {
		if c.Distance != nil && *c.Distance > cutoff {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		logger.InfoContext(ctx, "all candidates above relaxed cutoff", "cutoff", cutoff, "retrieved", len(candidates))
		return []Candidate{}, nil
	}

	// Stage 2: cross-encoder reranking. Skipped below two candidates, and
	// any encoder failure leaves the retrieval order untouched.
	survivors = p.rerankCandidates(ctx, query, survivors)

	// Stage 3: strict threshold over the top ReturnK, preserving order.
	top := survivors
	if len(top) > p.opts.ReturnK {
		top = top[:p.opts.ReturnK]
	}
	matches := make([]Candidate, 0, len(top))
	for _, c := range top {
		if c.Distance == nil || *c.Distance <= p.opts.DistanceThreshold {
			matches = append(matches, c)
		}
	}

	logger.InfoContext(ctx, "search completed",
		"retrieved", len(candidates),
		"pre_filtered", len(survivors),
		"matches", len(matches),
	)
	return matches, nil
}

// rerankCandidates reorders candidates by cross-encoder score, descending,
// with ties keeping retrieval order. On any encoder error the input order is
// returned unchanged.
func (p *Pipeline) rerankCandidates(ctx context.Context, query string, candidates []Candidate) []Candidate {
	logger := contextutil.LoggerFromContext(ctx)

	if len(candidates) < 2 {
		return candidates
	}

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Content
	}

	scores, err := p.encoder.Predict(ctx, query, documents)
	if err != nil {
		if err != rerank.ErrUnavailable {
			logger.WarnContext(ctx, "reranking degraded to retrieval order", "error", err)
		}
		return candidates
	}
	if len(scores) != len(candidates) {
		logger.WarnContext(ctx, "reranking degraded to retrieval order",
			"error", fmt.Sprintf("score count mismatch: %d != %d", len(scores), len(candidates)))
		return candidates
	}

	for i := range candidates {
		score := scores[i]
		candidates[i].RerankScore = &score
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].RerankScore > *candidates[j].RerankScore
	})
	return candidates
}
