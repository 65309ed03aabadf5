package service

import (
	"context"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/pagination"
	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

// SchemeRepositoryInterface defines the repository interface for scheme persistence
type SchemeRepositoryInterface interface {
	Upsert(ctx context.Context, s *domain.SchemeRecord) (string, error)
	GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.SchemeRecord, error)
	ListWithCursor(ctx context.Context, state, category string, cursor *pagination.Cursor, limit int) (*SchemePageResult, error)
	ListPendingEmbedding(ctx context.Context, limit int) ([]*domain.SchemeRecord, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	DistinctStates(ctx context.Context) ([]string, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (total, embedded int64, err error)
}

// SchemePageResult is one page of schemes plus the cursor for the next page.
type SchemePageResult struct {
	Items      []*domain.SchemeRecord
	NextCursor string
	HasMore    bool
}

type ListSchemesInput struct {
	State    string
	Category string
	Cursor   string
	Limit    int
}

type ListSchemesOutput struct {
	Items   []*domain.SchemeRecord
	Cursor  string
	HasMore bool
}

// FilterOptions lists the distinct filter values present in the store.
type FilterOptions struct {
	States     []string
	Categories []string
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// CatalogService exposes read access to the scheme store.
type CatalogService struct {
	repo SchemeRepositoryInterface
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(repo SchemeRepositoryInterface) *CatalogService {
	return &CatalogService{repo: repo}
}

// List returns one page of schemes, optionally narrowed by state and
// category, ordered by catalog position.
func (s *CatalogService) List(ctx context.Context, input ListSchemesInput) (*ListSchemesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "CatalogService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		decoded, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
		cursor = decoded
	}

	page, err := s.repo.ListWithCursor(ctx, input.State, input.Category, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListSchemesOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}

// GetByID retrieves a single scheme by ID
func (s *CatalogService) GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "CatalogService.GetByID", telemetry.SpanAttributes{
		SchemeID:  id,
		Operation: "get",
	})
	defer span.End()

	return s.repo.GetByID(ctx, id)
}

// Filters returns the distinct states and categories users can filter on.
func (s *CatalogService) Filters(ctx context.Context) (*FilterOptions, error) {
	ctx, span := telemetry.StartSpan(ctx, "CatalogService.Filters", telemetry.SpanAttributes{
		Operation: "filters",
	})
	defer span.End()

	states, err := s.repo.DistinctStates(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	return &FilterOptions{States: states, Categories: categories}, nil
}
