package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yojanasaar/yojanasaar/internal/api"
	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

type CatalogService interface {
	List(ctx context.Context, input service.ListSchemesInput) (*service.ListSchemesOutput, error)
	GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error)
}

type SchemeHandler struct {
	svc CatalogService
}

func NewSchemeHandler(svc CatalogService) *SchemeHandler {
	return &SchemeHandler{svc: svc}
}

type SchemeResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	State       string `json:"state"`
	Department  string `json:"department"`
	Link        string `json:"link"`
	Embedded    bool   `json:"embedded"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func schemeToResponse(s *domain.SchemeRecord) *SchemeResponse {
	return &SchemeResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		State:       s.State,
		Department:  s.Department,
		Link:        s.Link,
		Embedded:    s.Embedded,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type SchemeListResponse struct {
	Schemes []*SchemeResponse `json:"schemes"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

func (h *SchemeHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 0
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	input := service.ListSchemesInput{
		State:    r.URL.Query().Get("state"),
		Category: r.URL.Query().Get("category"),
		Cursor:   cursor,
		Limit:    limit,
	}

	output, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	schemes := make([]*SchemeResponse, len(output.Items))
	for i, s := range output.Items {
		schemes[i] = schemeToResponse(s)
	}

	api.Success(w, http.StatusOK, SchemeListResponse{
		Schemes: schemes,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *SchemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	scheme, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, schemeToResponse(scheme))
}
