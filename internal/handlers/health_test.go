package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krwhynot/escalation-helper/internal/vectorstore"
)

type stubInspector struct {
	info *vectorstore.CollectionInfo
	err  error
}

func (s *stubInspector) GetCollectionInfo(context.Context, string) (*vectorstore.CollectionInfo, error) {
	return s.info, s.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		inspector  *stubInspector
		wantStatus int
		wantState  string
	}{
		{
			name:       "healthy",
			inspector:  &stubInspector{info: &vectorstore.CollectionInfo{VectorSize: 1536, PointsCount: 120, Status: "green"}},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "index unreachable",
			inspector:  &stubInspector{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
		{
			name:       "index empty",
			inspector:  &stubInspector{info: &vectorstore.CollectionInfo{VectorSize: 1536}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.inspector, "kb")
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantState)
			}
		})
	}
}

func TestHealthHandlerReportsPointCount(t *testing.T) {
	handler := NewHealthHandler(&stubInspector{
		info: &vectorstore.CollectionInfo{VectorSize: 1536, PointsCount: 42, Status: "green"},
	}, "kb")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IndexedChunks != 42 {
		t.Errorf("IndexedChunks = %d, want 42", resp.IndexedChunks)
	}
}
