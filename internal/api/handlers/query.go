package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yojanasaar/yojanasaar/internal/api"
	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/service"
)

type QueryService interface {
	Answer(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error)
}

type QueryHandler struct {
	svc      QueryService
	logRepo  service.QueryLogRepository
	defaultK int
	maxK     int
}

func NewQueryHandler(svc QueryService, logRepo service.QueryLogRepository, defaultK, maxK int) *QueryHandler {
	return &QueryHandler{
		svc:      svc,
		logRepo:  logRepo,
		defaultK: defaultK,
		maxK:     maxK,
	}
}

type ConversationTurnRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type QueryRequest struct {
	Query               string                    `json:"query"`
	K                   int                       `json:"k,omitempty"`
	State               string                    `json:"state,omitempty"`
	Category            string                    `json:"category,omitempty"`
	ConversationHistory []ConversationTurnRequest `json:"conversation_history,omitempty"`
}

type QueryResponse struct {
	Answer          string            `json:"answer"`
	RelevantSchemes []*SchemeResponse `json:"relevant_schemes"`
}

// Query runs one question through the answer pipeline. An omitted k falls
// back to the configured default; an oversized k is clamped, not rejected.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	k := req.K
	if k == 0 {
		k = h.defaultK
	}
	if h.maxK > 0 && k > h.maxK {
		k = h.maxK
	}

	history := make([]domain.ConversationTurn, len(req.ConversationHistory))
	for i, turn := range req.ConversationHistory {
		history[i] = domain.ConversationTurn{
			Role:    domain.Role(turn.Role),
			Content: turn.Content,
		}
	}

	input := &domain.QueryRequest{
		Query:    req.Query,
		K:        k,
		State:    req.State,
		Category: req.Category,
		History:  history,
	}

	output, err := h.svc.Answer(r.Context(), input)

	if h.logRepo != nil {
		h.logQuery(r.Context(), input, output, err, start)
	}

	if err != nil {
		api.HandleError(w, err)
		return
	}

	schemes := make([]*SchemeResponse, len(output.Schemes))
	for i := range output.Schemes {
		schemes[i] = schemeToResponse(&output.Schemes[i])
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Answer:          output.Answer,
		RelevantSchemes: schemes,
	})
}

// logQuery records the query for offline analytics. Failed pipeline calls
// are recorded with their error code; a failed log write never affects the
// response.
func (h *QueryHandler) logQuery(ctx context.Context, input *domain.QueryRequest, output *domain.QueryResponse, answerErr error, start time.Time) {
	entry := service.QueryLogEntry{
		Query:      input.Query,
		K:          input.K,
		State:      input.State,
		Category:   input.Category,
		DurationMs: int(time.Since(start).Milliseconds()),
	}

	if answerErr != nil {
		var domainErr *domain.DomainError
		if errors.As(answerErr, &domainErr) {
			entry.ErrorCode = domainErr.Code
		} else {
			entry.ErrorCode = domain.ErrCodeInternal
		}
	} else {
		entry.Answered = true
		entry.ResultCount = len(output.Schemes)
		entry.SchemeIDs = make([]string, len(output.Schemes))
		for i := range output.Schemes {
			entry.SchemeIDs[i] = output.Schemes[i].ID
		}
	}

	_, _ = h.logRepo.CreateQueryLog(ctx, entry)
}
