package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContentGapService struct {
	mock.Mock
}

func (m *MockContentGapService) List(ctx context.Context, status string, limit int) ([]*domain.ContentSuggestion, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentSuggestion), args.Error(1)
}

func (m *MockContentGapService) UpdateStatus(ctx context.Context, id, status string) (*domain.ContentSuggestion, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentSuggestion), args.Error(1)
}

func (m *MockContentGapService) Export(ctx context.Context) (*service.GapExport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GapExport), args.Error(1)
}

func sampleGap(status domain.SuggestionStatus) *domain.ContentSuggestion {
	at := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	return &domain.ContentSuggestion{
		ID:             "gap-1",
		Term:           "reembolso combustivel",
		SearchCount:    4,
		PriorityScore:  4,
		Status:         status,
		LastSearchedAt: at,
		CreatedAt:      at.Add(-48 * time.Hour),
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestContentGapHandler_List(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)
	mockSvc.On("List", mock.Anything, "pending", 20).
		Return([]*domain.ContentSuggestion{sampleGap(domain.SuggestionStatusPending)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/content-gaps?status=pending&limit=20", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	require.Len(t, data, 1)
	gap := data[0].(map[string]interface{})
	assert.Equal(t, "reembolso combustivel", gap["term"])
	assert.Equal(t, float64(4), gap["search_count"])
	mockSvc.AssertExpectations(t)
}

func TestContentGapHandler_List_DefaultsPassedThrough(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)
	mockSvc.On("List", mock.Anything, "", 0).Return([]*domain.ContentSuggestion{}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/content-gaps", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestContentGapHandler_List_InvalidLimit(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/content-gaps?limit=abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestContentGapHandler_UpdateStatus(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)
	mockSvc.On("UpdateStatus", mock.Anything, "gap-1", "planned").
		Return(sampleGap(domain.SuggestionStatusPlanned), nil)

	body, _ := json.Marshal(UpdateContentGapRequest{Status: "planned"})
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/content-gaps/gap-1", bytes.NewReader(body)), "id", "gap-1")
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "planned", resp["data"].(map[string]interface{})["status"])
	mockSvc.AssertExpectations(t)
}

func TestContentGapHandler_UpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid status", domain.ErrInvalidSuggestionState, http.StatusBadRequest},
		{"not found", domain.ErrSuggestionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockContentGapService)
			handler := NewContentGapHandler(mockSvc)
			mockSvc.On("UpdateStatus", mock.Anything, "gap-9", "archived").Return(nil, tt.err)

			body := []byte(`{"status":"archived"}`)
			req := withURLParam(httptest.NewRequest(http.MethodPatch, "/content-gaps/gap-9", bytes.NewReader(body)), "id", "gap-9")
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestContentGapHandler_Export(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)
	mockSvc.On("Export", mock.Anything).Return(&service.GapExport{
		Key:   "reports/content-gaps/20260210T083000Z.csv",
		URL:   "https://s3.local/reports/content-gaps/20260210T083000Z.csv",
		Count: 3,
	}, nil)

	w := httptest.NewRecorder()
	handler.Export(w, httptest.NewRequest(http.MethodPost, "/content-gaps/export", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["count"])
}

func TestContentGapHandler_Export_NotConfigured(t *testing.T) {
	mockSvc := new(MockContentGapService)
	handler := NewContentGapHandler(mockSvc)
	mockSvc.On("Export", mock.Anything).Return(nil, domain.ErrStorageNotConfigured)

	w := httptest.NewRecorder()
	handler.Export(w, httptest.NewRequest(http.MethodPost, "/content-gaps/export", nil))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
