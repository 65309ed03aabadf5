package service

import (
	"context"
	"fmt"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingSchemeRepository defines the repository interface for embedding operations
type EmbeddingSchemeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SchemeRecord, error)
	ListPendingEmbedding(ctx context.Context, limit int) ([]*domain.SchemeRecord, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// EmbeddingService backfills vectors for schemes that do not have one yet.
// An upsert that changes a scheme's text clears its vector, so the same
// backfill path also re-embeds updated schemes.
type EmbeddingService struct {
	client EmbeddingClient
	repo   EmbeddingSchemeRepository
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(client EmbeddingClient, repo EmbeddingSchemeRepository) *EmbeddingService {
	return &EmbeddingService{
		client: client,
		repo:   repo,
	}
}

// EmbedScheme generates and stores the vector for a single scheme.
// This method is called by the background worker.
func (s *EmbeddingService) EmbedScheme(ctx context.Context, schemeID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.EmbedScheme", telemetry.SpanAttributes{
		SchemeID:  schemeID,
		Operation: "embed",
	})
	defer span.End()

	scheme, err := s.repo.GetByID(ctx, schemeID)
	if err != nil {
		return err
	}

	embedding, err := s.client.GenerateEmbedding(ctx, scheme.EmbeddingText())
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	if err := s.repo.UpdateEmbedding(ctx, scheme.ID, embedding); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}

	return nil
}

// EmbedPending embeds up to batchSize schemes that are missing a vector,
// oldest first, and reports how many were processed. The first failure stops
// the batch; schemes embedded before it keep their vectors.
func (s *EmbeddingService) EmbedPending(ctx context.Context, batchSize int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.EmbedPending", telemetry.SpanAttributes{
		Operation: "embed_pending",
	})
	defer span.End()

	pending, err := s.repo.ListPendingEmbedding(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	for i, scheme := range pending {
		embedding, err := s.client.GenerateEmbedding(ctx, scheme.EmbeddingText())
		if err != nil {
			return i, fmt.Errorf("failed to generate embedding for scheme %s: %w", scheme.ID, err)
		}

		if err := s.repo.UpdateEmbedding(ctx, scheme.ID, embedding); err != nil {
			return i, fmt.Errorf("failed to update embedding for scheme %s: %w", scheme.ID, err)
		}
	}

	return len(pending), nil
}
