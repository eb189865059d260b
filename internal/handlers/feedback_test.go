package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/krwhynot/escalation-helper/internal/storage"
	storagemocks "github.com/krwhynot/escalation-helper/internal/storage/mocks"
)

func TestFeedbackAdd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storagemocks.NewMockFeedbackStore(ctrl)
	store.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, record *storage.FeedbackRecord) error {
			if record.Query != "printer not working" {
				t.Errorf("Query = %q", record.Query)
			}
			if !record.Helpful {
				t.Error("Helpful = false, want true")
			}
			record.ID = "generated-id"
			return nil
		})

	handler := NewFeedbackHandler(store)
	rec := postJSON(t, http.HandlerFunc(handler.Add), "/api/v1/feedback", FeedbackRequest{
		Query:         "printer not working",
		AnswerExcerpt: "Restart the spooler.",
		Helpful:       true,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var record storage.FeedbackRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if record.ID != "generated-id" {
		t.Errorf("ID = %q", record.ID)
	}
}

func TestFeedbackAddValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewFeedbackHandler(storagemocks.NewMockFeedbackStore(ctrl))

	rec := postJSON(t, http.HandlerFunc(handler.Add), "/api/v1/feedback", FeedbackRequest{Helpful: true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestFeedbackAddStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storagemocks.NewMockFeedbackStore(ctrl)
	store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	handler := NewFeedbackHandler(store)
	rec := postJSON(t, http.HandlerFunc(handler.Add), "/api/v1/feedback", FeedbackRequest{Query: "q"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestFeedbackList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storagemocks.NewMockFeedbackStore(ctrl)
	store.EXPECT().
		ListRecent(gomock.Any(), 2).
		Return([]storage.FeedbackRecord{
			{ID: "1", Query: "a", Helpful: true, CreatedAt: time.Now()},
			{ID: "2", Query: "b", Helpful: false, CreatedAt: time.Now()},
		}, nil)

	handler := NewFeedbackHandler(store)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback?limit=2", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var records []storage.FeedbackRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestFeedbackListInvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewFeedbackHandler(storagemocks.NewMockFeedbackStore(ctrl))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback?limit=zero", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
