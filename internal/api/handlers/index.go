package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/intranet-search/internal/api"
	"github.com/cloo-solutions/intranet-search/internal/domain"
	"github.com/cloo-solutions/intranet-search/internal/service"
)

type IndexService interface {
	Rebuild(ctx context.Context, trigger domain.IndexRunTrigger) (*service.RebuildResult, error)
	LatestRun(ctx context.Context) (*domain.IndexRun, error)
}

type IndexHandler struct {
	svc IndexService
}

func NewIndexHandler(svc IndexService) *IndexHandler {
	return &IndexHandler{svc: svc}
}

type RebuildResponse struct {
	Success bool   `json:"success"`
	Indexed int    `json:"indexed"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
	RunID   string `json:"run_id,omitempty"`
}

type IndexRunResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Trigger    string  `json:"trigger"`
	Total      int     `json:"total"`
	Indexed    int     `json:"indexed"`
	Failed     int     `json:"failed"`
	Error      string  `json:"error,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// Rebuild handles POST /search/index.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Rebuild(r.Context(), domain.IndexRunTriggerAPI)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, RebuildResponse{
		Success: true,
		Indexed: result.Indexed,
		Failed:  result.Failed,
		Total:   result.Total,
		RunID:   result.RunID,
	})
}

// Status handles GET /search/index/status.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toIndexRunResponse(run))
}

func toIndexRunResponse(run *domain.IndexRun) *IndexRunResponse {
	resp := &IndexRunResponse{
		ID:        run.ID,
		Status:    string(run.Status),
		Trigger:   string(run.Trigger),
		Total:     run.Total,
		Indexed:   run.Indexed,
		Failed:    run.Failed,
		Error:     run.Error,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp
}
