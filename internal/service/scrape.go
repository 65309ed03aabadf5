package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yojanasaar/yojanasaar/internal/domain"
	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

// ScrapeRunRepositoryInterface defines the repository interface for scrape run persistence
type ScrapeRunRepositoryInterface interface {
	Create(ctx context.Context, run *domain.ScrapeRun) error
	Finish(ctx context.Context, run *domain.ScrapeRun) error
	GetByID(ctx context.Context, id string) (*domain.ScrapeRun, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeRun, error)
}

// ScrapePage is one page of schemes fetched from the upstream catalog.
type ScrapePage struct {
	From    int
	Total   int
	Schemes []*domain.SchemeRecord
}

// SchemeFetcherInterface walks the upstream catalog page by page, invoking
// the callback once per page. Returning an error from the callback aborts
// the walk.
type SchemeFetcherInterface interface {
	Fetch(ctx context.Context, fn func(page ScrapePage) error) error
}

// SnapshotStoreInterface archives the raw scraped records in object storage.
type SnapshotStoreInterface interface {
	UploadScrapeSnapshot(ctx context.Context, runID string, schemes []*domain.SchemeRecord) (string, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ScrapeService refreshes the scheme store from the upstream catalog. Each
// page is upserted in its own transaction, so an abort keeps every fully
// processed page.
type ScrapeService struct {
	fetcher   SchemeFetcherInterface
	runs      ScrapeRunRepositoryInterface
	tx        TxRunner
	snapshots SnapshotStoreInterface
	uuidGen   UUIDGenerator
}

// NewScrapeService creates a new ScrapeService instance. snapshots may be
// nil when no object storage is configured.
func NewScrapeService(
	fetcher SchemeFetcherInterface,
	runs ScrapeRunRepositoryInterface,
	tx TxRunner,
	snapshots SnapshotStoreInterface,
) *ScrapeService {
	return &ScrapeService{
		fetcher:   fetcher,
		runs:      runs,
		tx:        tx,
		snapshots: snapshots,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewScrapeServiceWithUUIDGen creates a new ScrapeService with custom UUID generator (for testing)
func NewScrapeServiceWithUUIDGen(
	fetcher SchemeFetcherInterface,
	runs ScrapeRunRepositoryInterface,
	tx TxRunner,
	snapshots SnapshotStoreInterface,
	uuidGen UUIDGenerator,
) *ScrapeService {
	return &ScrapeService{
		fetcher:   fetcher,
		runs:      runs,
		tx:        tx,
		snapshots: snapshots,
		uuidGen:   uuidGen,
	}
}

// Run executes one full scrape and records its outcome. The run row is
// created before the first fetch and finished whether the walk succeeds or
// aborts, so partial progress stays visible.
func (s *ScrapeService) Run(ctx context.Context) (*domain.ScrapeRun, error) {
	run := domain.NewScrapeRun(s.uuidGen.NewString(), time.Now().UTC())

	ctx, span := telemetry.StartSpan(ctx, "ScrapeService.Run", telemetry.SpanAttributes{
		RunID:     run.ID,
		Operation: "scrape",
	})
	defer span.End()

	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	var scraped []*domain.SchemeRecord
	err := s.fetcher.Fetch(ctx, func(page ScrapePage) error {
		run.TotalReported = page.Total

		err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
			for _, scheme := range page.Schemes {
				if _, err := repos.Schemes().Upsert(ctx, scheme); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		run.Pages++
		run.SchemesUpserted += len(page.Schemes)
		scraped = append(scraped, page.Schemes...)
		return nil
	})

	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt

	if err != nil {
		run.Status = domain.ScrapeRunStatusFailed
		run.Error = err.Error()
		if ferr := s.runs.Finish(ctx, run); ferr != nil {
			telemetry.CaptureError(ctx, ferr)
		}
		return nil, err
	}

	if s.snapshots != nil {
		key, serr := s.snapshots.UploadScrapeSnapshot(ctx, run.ID, scraped)
		if serr != nil {
			// A failed archive upload does not fail the run.
			telemetry.CaptureError(ctx, serr)
		} else {
			run.SnapshotKey = key
		}
	}

	run.Status = domain.ScrapeRunStatusCompleted
	if err := s.runs.Finish(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

// GetRun retrieves a single scrape run by ID
func (s *ScrapeService) GetRun(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRecentRuns returns the most recent scrape runs, newest first.
func (s *ScrapeService) ListRecentRuns(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	return s.runs.ListRecent(ctx, limit)
}
