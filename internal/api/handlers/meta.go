package handlers

import (
	"context"
	"net/http"

	"github.com/yojanasaar/yojanasaar/internal/api"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

type FilterService interface {
	Filters(ctx context.Context) (*service.FilterOptions, error)
}

type MetaHandler struct {
	svc FilterService
}

func NewMetaHandler(svc FilterService) *MetaHandler {
	return &MetaHandler{svc: svc}
}

type FiltersResponse struct {
	States     []string `json:"states"`
	Categories []string `json:"categories"`
}

// Filters returns the distinct filter values for UI dropdowns.
func (h *MetaHandler) Filters(w http.ResponseWriter, r *http.Request) {
	options, err := h.svc.Filters(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := FiltersResponse{
		States:     options.States,
		Categories: options.Categories,
	}
	if resp.States == nil {
		resp.States = []string{}
	}
	if resp.Categories == nil {
		resp.Categories = []string{}
	}

	api.Success(w, http.StatusOK, resp)
}
