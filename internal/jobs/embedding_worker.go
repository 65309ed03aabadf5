package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

const (
	// DefaultBatchSize is the number of schemes embedded per poll
	DefaultBatchSize = 16
)

// BackfillService defines the interface for the embedding backfill
type BackfillService interface {
	// EmbedPending embeds up to batchSize schemes missing a vector and
	// returns how many were processed.
	EmbedPending(ctx context.Context, batchSize int) (int, error)
}

// EmbeddingWorker embeds schemes the scraper added since the last index
// build. Schemes with a NULL embedding are the work queue; a successfully
// embedded scheme leaves it, a failed one stays for the next poll.
type EmbeddingWorker struct {
	service   BackfillService
	batchSize int
}

// NewEmbeddingWorker creates a new EmbeddingWorker instance
func NewEmbeddingWorker(service BackfillService, batchSize int) *EmbeddingWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EmbeddingWorker{
		service:   service,
		batchSize: batchSize,
	}
}

// Process implements the Processor interface. Each poll runs as its own
// trace; there is no inbound request to parent it.
func (w *EmbeddingWorker) Process(ctx context.Context) error {
	ctx, span := telemetry.StartTransaction(ctx, "EmbeddingWorker.Process", "queue.task")
	defer span.End()

	processed, err := w.service.EmbedPending(ctx, w.batchSize)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to embed pending schemes: %w", err)
	}

	if processed > 0 {
		log.Printf("Embedded %d pending schemes", processed)
	}

	return nil
}
