package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "INTRANET"

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	OpenAIAPIKey        string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string  `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int     `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	ChatModel           string  `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	OpenAIRateLimit     float64 `envconfig:"OPENAI_RATE_LIMIT" default:"0"`

	IndexBatchSize  int           `envconfig:"INDEX_BATCH_SIZE" default:"10"`
	ReindexInterval time.Duration `envconfig:"REINDEX_INTERVAL" default:"0"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"intranet-reports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("invalid %s_EMBEDDING_DIMENSIONS: %d", EnvPrefix, cfg.EmbeddingDimensions)
	}
	if cfg.IndexBatchSize <= 0 {
		return nil, fmt.Errorf("invalid %s_INDEX_BATCH_SIZE: %d", EnvPrefix, cfg.IndexBatchSize)
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

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// TracesSampleRate samples everything outside production.
func (c *Config) TracesSampleRate() float64 {
	if c.Environment == "production" {
		return 0.1
	}
	return 1.0
}
