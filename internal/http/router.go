package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/krwhynot/escalation-helper/internal/handlers"
	"github.com/krwhynot/escalation-helper/internal/service"
	"github.com/krwhynot/escalation-helper/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Assistant      service.AssistantService
	Feedback       storage.FeedbackStore
	Index          handlers.CollectionInspector
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	askHandler := handlers.NewAskHandler(deps.Assistant)
	followupHandler := handlers.NewFollowupHandler(deps.Assistant)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Post("/followup/select", followupHandler.Select)
			r.Post("/followup/skip", followupHandler.Skip)
			r.Post("/feedback", feedbackHandler.Add)
			r.Get("/feedback", feedbackHandler.List)
		})
	})

	return r
}
