package rerank

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Predict when no cross-encoder model is
// configured. Callers are expected to fall back to retrieval order.
var ErrUnavailable = errors.New("cross-encoder unavailable")

// CrossEncoder scores (query, document) pairs with a pairwise relevance
// model. Scores are returned in document order; higher means more relevant.
type CrossEncoder interface {
	Predict(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Disabled is the no-op cross-encoder used when no model is configured.
// Running without a reranker is a valid configuration, not an error state.
type Disabled struct{}

// Predict always reports the encoder as unavailable.
func (Disabled) Predict(ctx context.Context, query string, documents []string) ([]float64, error) {
	return nil, ErrUnavailable
}
