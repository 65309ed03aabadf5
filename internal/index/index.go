// Package index provides nearest-neighbor search over scheme embeddings.
//
// Two backends exist: a pgvector-backed searcher that delegates to Postgres
// and an in-memory brute-force searcher loaded once at startup. Both return
// scheme ids with similarity scores only; record resolution always goes
// through the document store so that an index/store mismatch is detectable.
package index

import (
	"context"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// Match is one search hit: a scheme id and its similarity score.
// Scores are 1/(1+d) over cosine distance d, so higher is more similar.
type Match struct {
	SchemeID string
	Score    float32
}

// Searcher finds the k nearest schemes to a query vector, most similar
// first. Ties are broken by the corpus insertion order.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// Entry pairs a scheme record with its embedding vector. Corpus loaders
// produce entries in insertion order.
type Entry struct {
	Scheme domain.SchemeRecord
	Vector []float32
}
