package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/yojanasaar/yojanasaar/internal/config"
	"github.com/yojanasaar/yojanasaar/internal/database"
	"github.com/yojanasaar/yojanasaar/internal/repository"
	"github.com/yojanasaar/yojanasaar/internal/scraper"
	"github.com/yojanasaar/yojanasaar/internal/service"
	"github.com/yojanasaar/yojanasaar/internal/storage"
)

func ScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Refresh the scheme catalog from MyScheme",
		Long:  "Walk the upstream catalog page by page and upsert every scheme into the store",
		RunE:  runScrape,
	}

	cmd.Flags().Int("max-pages", 0, "Stop after this many pages (0 walks the whole catalog)")
	cmd.Flags().Bool("dry-run", false, "Fetch and count schemes without writing to the database")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	cmd.AddCommand(ScrapeHistoryCmd())

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	maxPages, _ := cmd.Flags().GetInt("max-pages")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	outputFormat, _ := cmd.Flags().GetString("output")

	fetcher := scraper.New(scraper.Config{
		BaseURL:  cfg.ScrapeBaseURL,
		APIKey:   cfg.ScrapeAPIKey,
		PageSize: cfg.ScrapePageSize,
		Delay:    cfg.ScrapeDelay,
		MaxPages: maxPages,
	})

	if dryRun {
		return runScrapeDry(ctx, fetcher, outputFormat)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	runRepo := repository.NewScrapeRunRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var snapshots service.SnapshotStoreInterface
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		snapshots = s3Client
	}

	scrapeSvc := service.NewScrapeService(fetcher, runRepo, txRunner, snapshots)

	log.Println("starting catalog scrape...")
	run, err := scrapeSvc.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":               run.ID,
			"status":           run.Status,
			"pages":            run.Pages,
			"schemes_upserted": run.SchemesUpserted,
			"total_reported":   run.TotalReported,
			"snapshot_key":     run.SnapshotKey,
			"started_at":       run.StartedAt,
			"finished_at":      run.FinishedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Scrape %s: %d schemes upserted across %d pages (catalog reports %d)\n",
			run.Status, run.SchemesUpserted, run.Pages, run.TotalReported)
		if run.SnapshotKey != "" {
			fmt.Printf("Raw payload archived at %s\n", run.SnapshotKey)
		}
	}

	return nil
}

// runScrapeDry walks the catalog without touching the database.
func runScrapeDry(ctx context.Context, fetcher *scraper.Scraper, outputFormat string) error {
	pages := 0
	schemes := 0
	total := 0

	err := fetcher.Fetch(ctx, func(page service.ScrapePage) error {
		pages++
		schemes += len(page.Schemes)
		total = page.Total
		return nil
	})
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"pages":          pages,
			"schemes":        schemes,
			"total_reported": total,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Dry run: %d schemes across %d pages (catalog reports %d); nothing written\n",
			schemes, pages, total)
	}

	return nil
}

func ScrapeHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scrape runs",
		Long:  "List the most recent scrape runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runScrapeHistory(outputFormat, limit)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs")

	return cmd
}

func runScrapeHistory(outputFormat string, limit int) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	runRepo := repository.NewScrapeRunRepository(pool)

	runs, err := runRepo.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list scrape runs: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(runs))
		for i, run := range runs {
			data[i] = map[string]interface{}{
				"id":               run.ID,
				"status":           run.Status,
				"pages":            run.Pages,
				"schemes_upserted": run.SchemesUpserted,
				"total_reported":   run.TotalReported,
				"snapshot_key":     run.SnapshotKey,
				"error":            run.Error,
				"started_at":       run.StartedAt,
				"finished_at":      run.FinishedAt,
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(runs) == 0 {
			fmt.Println("No scrape runs found")
			return nil
		}
		fmt.Println("Scrape runs:")
		for _, run := range runs {
			fmt.Printf("  %s: %s, %d schemes across %d pages (started: %s)\n",
				run.ID, run.Status, run.SchemesUpserted, run.Pages,
				run.StartedAt.Format("2006-01-02 15:04:05"))
			if run.Error != "" {
				fmt.Printf("    error: %s\n", run.Error)
			}
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasDatabase() {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
