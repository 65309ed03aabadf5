package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/index"
	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

// GenerationClient defines the interface for producing answer text from a
// composed prompt.
type GenerationClient interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// SchemeResolverInterface resolves candidate ids to full scheme records.
type SchemeResolverInterface interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.SchemeRecord, error)
}

// NoMatchAnswer is returned when filtering leaves no candidate schemes. The
// model is not called in that case.
const NoMatchAnswer = "I couldn't find any relevant schemes in the database based on your query and filters. Please try rephrasing your question or adjusting the filters."

// PipelineService answers scheme questions with retrieval-augmented
// generation: embed the query, retrieve nearest schemes, filter, compose a
// grounded prompt, and generate. It holds no per-call state; the caller
// resends the full conversation history with every request.
type PipelineService struct {
	embedder  EmbeddingClient
	searcher  index.Searcher
	resolver  SchemeResolverInterface
	generator GenerationClient
}

// NewPipelineService creates a new PipelineService instance
func NewPipelineService(
	embedder EmbeddingClient,
	searcher index.Searcher,
	resolver SchemeResolverInterface,
	generator GenerationClient,
) *PipelineService {
	return &PipelineService{
		embedder:  embedder,
		searcher:  searcher,
		resolver:  resolver,
		generator: generator,
	}
}

// Answer runs one query through the pipeline. Validation happens before any
// collaborator is invoked; a failure at any later step propagates to the
// caller unchanged, carrying the code of the step that failed.
func (s *PipelineService) Answer(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	if err := domain.ValidateQueryRequest(req); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "PipelineService.Answer", telemetry.SpanAttributes{
		Operation:   "answer",
		QueryLength: len(req.Query),
	})
	defer span.End()

	vector, err := s.embedder.GenerateEmbedding(ctx, req.Query)
	if err != nil {
		return nil, classify(err, domain.ErrCodeEmbedding, "failed to embed query")
	}

	matches, err := s.searcher.Search(ctx, vector, req.K)
	if err != nil {
		return nil, classify(err, domain.ErrCodeRetrieval, "vector search failed")
	}

	telemetry.AddBreadcrumb(ctx, "pipeline", fmt.Sprintf("retrieved %d candidates for k=%d", len(matches), req.K))

	candidates, err := s.resolveMatches(ctx, matches)
	if err != nil {
		return nil, err
	}

	// Filtering happens strictly after retrieval, so a narrow filter can
	// return fewer than k schemes, including none. Callers broaden k to
	// compensate; there is no server-side re-query.
	filtered := filterSchemes(candidates, req.State, req.Category)
	if len(filtered) == 0 {
		telemetry.AddBreadcrumb(ctx, "pipeline", "no schemes survived the filters, skipping generation")
		return &domain.QueryResponse{
			Answer:  NoMatchAnswer,
			Schemes: []domain.SchemeRecord{},
		}, nil
	}

	prompt := BuildPrompt(req.Query, filtered, req.History)

	answer, err := s.generator.GenerateAnswer(ctx, prompt)
	if err != nil {
		return nil, classify(err, domain.ErrCodeGeneration, "failed to generate answer")
	}
	if strings.TrimSpace(answer) == "" {
		return nil, domain.ErrEmptyAnswer
	}

	return &domain.QueryResponse{
		Answer:  answer,
		Schemes: filtered,
	}, nil
}

// resolveMatches loads the full record for every match, preserving the
// ranked order. A match whose id is missing from the store is a fatal
// inconsistency between index and store, not a recoverable miss.
func (s *PipelineService) resolveMatches(ctx context.Context, matches []index.Match) ([]domain.SchemeRecord, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.SchemeID
	}

	records, err := s.resolver.GetByIDs(ctx, ids)
	if err != nil {
		return nil, classify(err, domain.ErrCodeRetrieval, "failed to load candidate schemes")
	}

	out := make([]domain.SchemeRecord, 0, len(matches))
	for _, m := range matches {
		rec, ok := records[m.SchemeID]
		if !ok || rec == nil {
			return nil, domain.NewConsistencyError(m.SchemeID)
		}
		out = append(out, *rec)
	}
	return out, nil
}

func filterSchemes(candidates []domain.SchemeRecord, state, category string) []domain.SchemeRecord {
	filtered := make([]domain.SchemeRecord, 0, len(candidates))
	for _, c := range candidates {
		if !c.MatchesState(state) || !c.MatchesCategory(category) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// classify wraps a collaborator failure under the pipeline step's error code
// unless the error already carries a domain code.
func classify(err error, code, message string) error {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return err
	}
	return domain.NewDomainErrorWithCause(code, message, err)
}
