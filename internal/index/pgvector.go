package index

import (
	"context"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// SchemeVectorStore is the database access the pgvector searcher needs.
type SchemeVectorStore interface {
	SearchByEmbedding(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// PgvectorSearcher delegates nearest-neighbor search to Postgres, where the
// embedding column carries a pgvector value per indexed scheme.
type PgvectorSearcher struct {
	store SchemeVectorStore
	dims  int
}

func NewPgvectorSearcher(store SchemeVectorStore, dims int) *PgvectorSearcher {
	return &PgvectorSearcher{store: store, dims: dims}
}

// Search returns the k nearest schemes by cosine distance.
func (s *PgvectorSearcher) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != s.dims {
		return nil, domain.ErrQueryDimensions
	}
	if k < 1 {
		return nil, nil
	}

	matches, err := s.store.SearchByEmbedding(ctx, vector, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, "vector search failed", err)
	}
	return matches, nil
}
