package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/krwhynot/escalation-helper/internal/config"
	"github.com/krwhynot/escalation-helper/internal/indexer"
	"github.com/krwhynot/escalation-helper/internal/llm"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

func main() {
	dataDir := flag.String("data", "", "directory of markdown articles (defaults to DATA_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	dir := cfg.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)

	pipeline := indexer.NewPipeline(embedder, store, cfg.QdrantCollection, cfg.QdrantVectorSize)

	slog.Info("Rebuilding knowledge base index", "data_dir", dir, "collection", cfg.QdrantCollection)
	stats, err := pipeline.Run(context.Background(), dir)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}
	slog.Info("Indexing complete",
		"documents", stats.Documents, "chunks", stats.Chunks, "skipped", stats.Skipped)
}
