package indexer

// Chunk is one embeddable slice of a knowledge base article.
type Chunk struct {
	Index   int
	Heading string
	Text    string
}

// Stats summarizes one indexing run.
type Stats struct {
	Documents int
	Chunks    int
	Skipped   int
}
