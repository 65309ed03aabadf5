package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/yojanasaar/yojanasaar/internal/api/handlers"
	"github.com/yojanasaar/yojanasaar/internal/api/middleware"
	"github.com/yojanasaar/yojanasaar/internal/config"
	"github.com/yojanasaar/yojanasaar/internal/database"
	"github.com/yojanasaar/yojanasaar/internal/gemini"
	"github.com/yojanasaar/yojanasaar/internal/index"
	"github.com/yojanasaar/yojanasaar/internal/jobs"
	"github.com/yojanasaar/yojanasaar/internal/openai"
	"github.com/yojanasaar/yojanasaar/internal/repository"
	"github.com/yojanasaar/yojanasaar/internal/server"
	"github.com/yojanasaar/yojanasaar/internal/service"
	"github.com/yojanasaar/yojanasaar/internal/snapshot"
	"github.com/yojanasaar/yojanasaar/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the yojana API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

// ModelClient is the hosted-model surface the answer pipeline needs. Both
// provider clients satisfy it.
type ModelClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.HasSentry() {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	modelClient, err := newModelClient(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		store        service.SchemeRepositoryInterface
		searcher     index.Searcher
		pinger       service.PingerInterface
		sizer        service.IndexSizerInterface
		queryLogRepo service.QueryLogRepository
	)

	var embeddingWorker *jobs.Worker

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		// Run migrations unless --no-migrate flag is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		schemeRepo := repository.NewSchemeRepository(pool)
		store = schemeRepo
		pinger = pool
		queryLogRepo = repository.NewQueryLogRepository(pool)

		switch cfg.IndexBackend {
		case "memory":
			entries, err := loadCorpus(ctx, cfg, schemeRepo)
			if err != nil {
				return err
			}
			memoryIndex, err := index.NewMemoryIndex(entries, cfg.EmbeddingDims)
			if err != nil {
				return fmt.Errorf("failed to build memory index: %w", err)
			}
			searcher = memoryIndex
			sizer = memoryIndex
			log.Printf("memory index loaded with %d vectors", memoryIndex.Len())
		default:
			searcher = index.NewPgvectorSearcher(schemeRepo, cfg.EmbeddingDims)
		}

		if cfg.EmbedWorkerEnabled {
			embeddingSvc := service.NewEmbeddingService(modelClient, schemeRepo)
			embeddingProcessor := jobs.NewEmbeddingWorker(embeddingSvc, cfg.EmbedBatchSize)
			embeddingWorker = jobs.NewWorker(embeddingProcessor, cfg.EmbedWorkerInterval)
			go embeddingWorker.Start(ctx)
			log.Println("embedding worker started")
		}
	} else {
		// Without a database the server runs read-only from a snapshot.
		if cfg.IndexBackend != "memory" || cfg.IndexSnapshot == "" {
			return fmt.Errorf("DATABASE_URL is required unless INDEX_BACKEND=memory and INDEX_SNAPSHOT are set")
		}

		entries, err := snapshot.Read(ctx, cfg.IndexSnapshot)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		memoryIndex, err := index.NewMemoryIndex(entries, cfg.EmbeddingDims)
		if err != nil {
			return fmt.Errorf("failed to build memory index: %w", err)
		}
		searcher = memoryIndex
		sizer = memoryIndex
		store = snapshot.NewStore(entries)
		log.Printf("serving %d schemes from snapshot %s", memoryIndex.Len(), cfg.IndexSnapshot)
	}

	pipelineSvc := service.NewPipelineService(modelClient, searcher, store, modelClient)
	catalogSvc := service.NewCatalogService(store)
	healthSvc := service.NewHealthService(pinger, store, sizer, cfg.IndexBackend)

	rateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	routerCfg := server.RouterConfig{
		QueryHandler:  handlers.NewQueryHandler(pipelineSvc, queryLogRepo, cfg.DefaultK, cfg.MaxK),
		SchemeHandler: handlers.NewSchemeHandler(catalogSvc),
		MetaHandler:   handlers.NewMetaHandler(catalogSvc),
		HealthHandler: handlers.NewHealthHandler(healthSvc),
		RateLimiter:   rateLimiter,
		CORSOrigins:   cfg.CORSAllowedOrigins,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if embeddingWorker != nil {
		embeddingWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// newModelClient builds the provider client selected by PROVIDER.
func newModelClient(ctx context.Context, cfg *config.Config) (ModelClient, error) {
	switch cfg.Provider {
	case "gemini":
		if !cfg.HasGemini() {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when PROVIDER=gemini")
		}
		return gemini.NewClientWithConfig(ctx, gemini.Config{
			APIKey:              cfg.GeminiAPIKey,
			ChatModel:           cfg.GeminiModel,
			EmbeddingModel:      cfg.GeminiEmbedModel,
			EmbeddingDimensions: cfg.EmbeddingDims,
		})
	case "openai":
		if !cfg.HasOpenAI() {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when PROVIDER=openai")
		}
		return openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			ChatModel:           cfg.OpenAIModel,
			EmbeddingModel:      cfg.OpenAIEmbedModel,
			EmbeddingDimensions: cfg.EmbeddingDims,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected gemini or openai)", cfg.Provider)
	}
}

// loadCorpus reads index entries from the snapshot file when one is
// configured, otherwise from the database.
func loadCorpus(ctx context.Context, cfg *config.Config, repo *repository.SchemeRepository) ([]index.Entry, error) {
	if cfg.IndexSnapshot != "" {
		entries, err := snapshot.Read(ctx, cfg.IndexSnapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		return entries, nil
	}

	entries, err := repo.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return entries, nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
