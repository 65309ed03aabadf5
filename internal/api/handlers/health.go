package handlers

import (
	"context"
	"net/http"

	"github.com/yojanasaar/yojanasaar/internal/api"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

type HealthService interface {
	Check(ctx context.Context) *service.HealthStatus
}

type HealthHandler struct {
	svc HealthService
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

type IndexStatusResponse struct {
	Backend  string `json:"backend"`
	Ready    bool   `json:"ready"`
	Total    int64  `json:"total"`
	Embedded int64  `json:"embedded"`
}

type HealthResponse struct {
	Status   string              `json:"status"`
	Database string              `json:"database"`
	Index    IndexStatusResponse `json:"index"`
}

// Check reports readiness; a degraded deployment answers 503 so load
// balancers stop routing to it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Check(r.Context())

	httpStatus := http.StatusOK
	if status.Status != service.HealthOK {
		httpStatus = http.StatusServiceUnavailable
	}

	api.Success(w, httpStatus, HealthResponse{
		Status:   status.Status,
		Database: status.Database,
		Index: IndexStatusResponse{
			Backend:  status.Index.Backend,
			Ready:    status.Index.Ready,
			Total:    status.Index.Total,
			Embedded: status.Index.Embedded,
		},
	})
}
