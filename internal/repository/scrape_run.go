package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

const scrapeRunColumns = `id, status, pages, schemes_upserted, total_reported, snapshot_key, error, started_at, finished_at`

// ScrapeRunRepository persists scrape run bookkeeping.
type ScrapeRunRepository struct {
	db dbtx
}

func NewScrapeRunRepository(pool *pgxpool.Pool) *ScrapeRunRepository {
	return &ScrapeRunRepository{db: pool}
}

func NewScrapeRunRepositoryWithTx(tx pgx.Tx) *ScrapeRunRepository {
	return &ScrapeRunRepository{db: tx}
}

func (r *ScrapeRunRepository) Create(ctx context.Context, run *domain.ScrapeRun) error {
	if err := domain.ValidateScrapeRun(run); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO scrape_runs (id, status, pages, schemes_upserted, total_reported, snapshot_key, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID,
		string(run.Status),
		run.Pages,
		run.SchemesUpserted,
		run.TotalReported,
		nullableString(run.SnapshotKey),
		nullableString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// Finish writes the terminal state of a run.
func (r *ScrapeRunRepository) Finish(ctx context.Context, run *domain.ScrapeRun) error {
	if err := domain.ValidateScrapeRun(run); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE scrape_runs
		 SET status = $1, pages = $2, schemes_upserted = $3, total_reported = $4,
		     snapshot_key = $5, error = $6, finished_at = $7
		 WHERE id = $8`,
		string(run.Status),
		run.Pages,
		run.SchemesUpserted,
		run.TotalReported,
		nullableString(run.SnapshotKey),
		nullableString(run.Error),
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScrapeRunNotFound
	}
	return nil
}

func (r *ScrapeRunRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeRun, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+scrapeRunColumns+` FROM scrape_runs WHERE id = $1`, id)

	run, err := scanScrapeRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScrapeRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *ScrapeRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+scrapeRunColumns+` FROM scrape_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.ScrapeRun
	for rows.Next() {
		run, err := scanScrapeRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanScrapeRun(row pgx.Row) (*domain.ScrapeRun, error) {
	var run domain.ScrapeRun
	var status string
	var snapshotKey, runErr *string

	err := row.Scan(
		&run.ID,
		&status,
		&run.Pages,
		&run.SchemesUpserted,
		&run.TotalReported,
		&snapshotKey,
		&runErr,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = domain.ScrapeRunStatus(status)
	if snapshotKey != nil {
		run.SnapshotKey = *snapshotKey
	}
	if runErr != nil {
		run.Error = *runErr
	}
	return &run, nil
}
