package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/intranet-search/internal/api"
	"github.com/cloo-solutions/intranet-search/internal/api/middleware"
	"github.com/cloo-solutions/intranet-search/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchFiltersRequest struct {
	ContentTypes []string `json:"contentTypes,omitempty"`
}

type SearchRequest struct {
	Query   string                `json:"query"`
	Filters *SearchFiltersRequest `json:"filters,omitempty"`
	Limit   int                   `json:"limit,omitempty"`
}

// Search handles POST /search. Errors use the bare {error} body.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.SearchInput{
		Query:  req.Query,
		Limit:  req.Limit,
		UserID: middleware.GetUserID(r.Context()),
	}
	if req.Filters != nil {
		input.ContentTypes = req.Filters.ContentTypes
	}

	output, err := h.svc.Search(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if output.Results == nil {
		output.Results = []*service.SearchResult{}
	}
	if output.Suggestions == nil {
		output.Suggestions = []string{}
	}
	api.JSON(w, http.StatusOK, output)
}
