package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"0"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"0"`

	// Provider selects which hosted model backend serves embeddings and
	// generation: "gemini" or "openai".
	Provider string `envconfig:"PROVIDER" default:"gemini"`

	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiModel      string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiEmbedModel string `envconfig:"GEMINI_EMBED_MODEL" default:"gemini-embedding-001"`

	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel      string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbedModel string `envconfig:"OPENAI_EMBED_MODEL" default:"text-embedding-3-small"`

	// EmbeddingDims must match the vector column width in the schema and
	// any snapshot being loaded.
	EmbeddingDims int `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`

	// IndexBackend selects the vector search implementation: "pgvector"
	// queries Postgres, "memory" scans an in-process index loaded once at
	// startup from the database or from IndexSnapshot.
	IndexBackend  string `envconfig:"INDEX_BACKEND" default:"pgvector"`
	IndexSnapshot string `envconfig:"INDEX_SNAPSHOT"`

	DefaultK int `envconfig:"DEFAULT_K" default:"5"`
	MaxK     int `envconfig:"MAX_K" default:"25"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	ScrapeBaseURL  string        `envconfig:"SCRAPE_BASE_URL" default:"https://api.myscheme.gov.in/search/v4/schemes"`
	ScrapeAPIKey   string        `envconfig:"SCRAPE_API_KEY"`
	ScrapePageSize int           `envconfig:"SCRAPE_PAGE_SIZE" default:"20"`
	ScrapeDelay    time.Duration `envconfig:"SCRAPE_DELAY" default:"1s"`

	EmbedWorkerEnabled  bool          `envconfig:"EMBED_WORKER" default:"false"`
	EmbedWorkerInterval time.Duration `envconfig:"EMBED_WORKER_INTERVAL" default:"30s"`
	EmbedBatchSize      int           `envconfig:"EMBED_BATCH_SIZE" default:"16"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"yojana-scrapes"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("YOJANA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
