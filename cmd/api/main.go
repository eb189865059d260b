package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/krwhynot/escalation-helper/internal/answer"
	"github.com/krwhynot/escalation-helper/internal/config"
	"github.com/krwhynot/escalation-helper/internal/followup"
	"github.com/krwhynot/escalation-helper/internal/http"
	"github.com/krwhynot/escalation-helper/internal/llm"
	"github.com/krwhynot/escalation-helper/internal/rerank"
	"github.com/krwhynot/escalation-helper/internal/search"
	"github.com/krwhynot/escalation-helper/internal/service"
	"github.com/krwhynot/escalation-helper/internal/storage"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := context.Background()

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	encoder, err := rerank.Load(cfg.CrossEncoderModel)
	if err != nil {
		// The index alone usually ranks well enough; run without reranking.
		slog.Warn("Cross-encoder unavailable, reranking disabled", "error", err)
		encoder = rerank.Disabled{}
	}

	retriever := search.NewRetriever(embedder, store, cfg.QdrantCollection)
	pipeline := search.NewPipeline(retriever, encoder, search.Options{
		RetrieveK:         cfg.RetrieveK,
		ReturnK:           cfg.ReturnK,
		DistanceThreshold: cfg.DistanceThreshold,
	})

	taxonomy := followup.DefaultTaxonomy()
	if cfg.CategoriesPath != "" {
		taxonomy, err = followup.LoadTaxonomy(cfg.CategoriesPath)
		if err != nil {
			log.Fatalf("Failed to load categories: %v", err)
		}
		slog.Info("Loaded category table", "path", cfg.CategoriesPath)
	}
	machine := followup.NewMachine(taxonomy, cfg.FollowupThreshold, cfg.MaxFollowups)

	assistant := service.NewAssistantService(pipeline, answer.NewGenerator(llmClient), machine)
	slog.Info("Assistant service initialized")

	deps := &http.Deps{
		Assistant:      assistant,
		Feedback:       storage.NewFeedbackRepo(db),
		Index:          store,
		CollectionName: cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
