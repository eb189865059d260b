package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/krwhynot/escalation-helper/internal/contextutil"
	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

// CollectionInspector is the slice of the vector store the health check
// needs.
type CollectionInspector interface {
	GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	index              CollectionInspector
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index CollectionInspector, collectionName string) *HealthHandler {
	return &HealthHandler{
		index:              index,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of indexed chunks, present when the index is reachable
	IndexedChunks int `json:"indexed_chunks,omitempty"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when the knowledge base index is reachable and populated,
// 503 Service Unavailable otherwise.
//
// swagger:route GET /api/health healthCheck
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	indexedChunks := 0

	info, err := h.index.GetCollectionInfo(checkCtx, h.collectionName)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "index health check failed", "error", err)
		checks["vector_index"] = "error"
		issues = append(issues, "vector_index_unavailable")
	case info.PointsCount == 0:
		checks["vector_index"] = "empty"
		issues = append(issues, "knowledge_base_not_indexed")
	default:
		checks["vector_index"] = "ok"
		indexedChunks = info.PointsCount
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Checks:        checks,
		IndexedChunks: indexedChunks,
		Issues:        issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	writeJSON(ctx, w, response)
}
