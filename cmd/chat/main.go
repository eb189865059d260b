package main

import (
	"io"
	"log"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/krwhynot/escalation-helper/internal/answer"
	"github.com/krwhynot/escalation-helper/internal/config"
	"github.com/krwhynot/escalation-helper/internal/followup"
	"github.com/krwhynot/escalation-helper/internal/llm"
	"github.com/krwhynot/escalation-helper/internal/rerank"
	"github.com/krwhynot/escalation-helper/internal/search"
	"github.com/krwhynot/escalation-helper/internal/service"
	"github.com/krwhynot/escalation-helper/internal/storage"
	"github.com/krwhynot/escalation-helper/internal/tui"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// The terminal belongs to the TUI; drop log output.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

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

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	encoder, err := rerank.Load(cfg.CrossEncoderModel)
	if err != nil {
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
	}
	machine := followup.NewMachine(taxonomy, cfg.FollowupThreshold, cfg.MaxFollowups)
	assistant := service.NewAssistantService(pipeline, answer.NewGenerator(llmClient), machine)

	model := tui.New(assistant, storage.NewFeedbackRepo(db))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("TUI exited with error: %v", err)
	}
}
