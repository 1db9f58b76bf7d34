package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/api"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
	"github.com/go-chi/chi/v5"
)

type ContentGapService interface {
	List(ctx context.Context, status string, limit int) ([]*domain.ContentSuggestion, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.ContentSuggestion, error)
	Export(ctx context.Context) (*service.GapExport, error)
}

type ContentGapHandler struct {
	svc ContentGapService
}

func NewContentGapHandler(svc ContentGapService) *ContentGapHandler {
	return &ContentGapHandler{svc: svc}
}

type ContentGapResponse struct {
	ID             string `json:"id"`
	Term           string `json:"term"`
	SearchCount    int    `json:"search_count"`
	PriorityScore  int    `json:"priority_score"`
	Status         string `json:"status"`
	LastSearchedAt string `json:"last_searched_at"`
	CreatedAt      string `json:"created_at"`
}

type UpdateContentGapRequest struct {
	Status string `json:"status"`
}

// List handles GET /content-gaps?status=&limit=.
func (h *ContentGapHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	gaps, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*ContentGapResponse, len(gaps))
	for i, g := range gaps {
		resp[i] = toContentGapResponse(g)
	}
	api.Success(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /content-gaps/{id}.
func (h *ContentGapHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateContentGapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gap, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toContentGapResponse(gap))
}

// Export handles POST /content-gaps/export.
func (h *ContentGapHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.svc.Export(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, export)
}

func toContentGapResponse(g *domain.ContentSuggestion) *ContentGapResponse {
	return &ContentGapResponse{
		ID:             g.ID,
		Term:           g.Term,
		SearchCount:    g.SearchCount,
		PriorityScore:  g.PriorityScore,
		Status:         string(g.Status),
		LastSearchedAt: g.LastSearchedAt.Format(time.RFC3339),
		CreatedAt:      g.CreatedAt.Format(time.RFC3339),
	}
}
