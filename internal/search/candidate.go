package search

import "math"

// Candidate is one retrieved knowledge-base passage with its relevance info.
// A candidate is created by the retriever and treated as read-only downstream,
// except for the rerank score annotation.
type Candidate struct {
	// Content is the passage text.
	Content string `json:"content"`
	// Metadata carries source attributes (source file, chunk index).
	Metadata map[string]string `json:"metadata"`
	// Distance is the cosine distance to the query (0 = identical, 1 = unrelated).
	// Nil when the index did not report one.
	Distance *float64 `json:"distance,omitempty"`
	// SimilarityPct is round((1-distance)*100, 1). Nil whenever Distance is nil.
	SimilarityPct *float64 `json:"similarity_pct,omitempty"`
	// RerankScore is the cross-encoder relevance score, set only when
	// reranking ran. Higher is more relevant.
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// NewCandidate builds a candidate, deriving SimilarityPct from the distance.
// Pass a nil distance for candidates the index returned without one.
func NewCandidate(content string, metadata map[string]string, distance *float64) Candidate {
	c := Candidate{
		Content:  content,
		Metadata: metadata,
		Distance: distance,
	}
	if distance != nil {
		pct := SimilarityPct(*distance)
		c.SimilarityPct = &pct
	}
	return c
}

// SimilarityPct converts a cosine distance to a percentage, rounded to one
// decimal place.
func SimilarityPct(distance float64) float64 {
	return math.Round((1-distance)*1000) / 10
}

// Relevance labels, most to least similar. LabelMedium is used when the index
// reported no distance.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelFair      = "Fair"
	LabelWeak      = "Weak"
	LabelMedium    = "Medium"
)

// Grade is a display classification of a candidate's distance.
type Grade struct {
	Label         string
	SimilarityPct *float64
}

// Classify converts a cosine distance to a relevance grade for display.
// Thresholds are evaluated in order; the first match wins.
func Classify(distance *float64) Grade {
	if distance == nil {
		return Grade{Label: LabelMedium}
	}

	pct := SimilarityPct(*distance)
	g := Grade{SimilarityPct: &pct}

	switch d := *distance; {
	case d < 0.20:
		g.Label = LabelExcellent
	case d < 0.35:
		g.Label = LabelGood
	case d < 0.50:
		g.Label = LabelFair
	default:
		g.Label = LabelWeak
	}
	return g
}
