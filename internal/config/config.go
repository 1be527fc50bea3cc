// Package config loads runtime configuration from an optional .env file and
// the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	GCS      GCSConfig
	BigQuery BigQueryConfig
	Expense  ExpenseConfig
	Model    ModelConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type GCSConfig struct {
	Bucket string
}

type BigQueryConfig struct {
	ProjectID string
	Dataset   string
	Table     string
}

type ExpenseConfig struct {
	BaseURL string
}

type ModelConfig struct {
	Name string
}

type PipelineConfig struct {
	PollInitial  time.Duration
	PollMax      time.Duration
	PollDeadline time.Duration

	// PurgeOnReprocess removes a statement's prior transactions before a
	// re-run persists a new batch. Off by default.
	PurgeOnReprocess bool
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "budgetpipe"),
		},
		GCS: GCSConfig{
			Bucket: getEnv("GCS_BUCKET", ""),
		},
		BigQuery: BigQueryConfig{
			ProjectID: getEnv("BIGQUERY_PROJECT", ""),
			Dataset:   getEnv("BIGQUERY_DATASET", "analytics"),
			Table:     getEnv("BIGQUERY_TABLE", "transaction_changes"),
		},
		Expense: ExpenseConfig{
			BaseURL: getEnv("EXPENSE_API_URL", "http://localhost:9090"),
		},
		Model: ModelConfig{
			Name: getEnv("MODEL_NAME", "gemini-2.5-flash"),
		},
		Pipeline: PipelineConfig{
			PollInitial:      getEnvDuration("POLL_INITIAL_DELAY", 1500*time.Millisecond),
			PollMax:          getEnvDuration("POLL_MAX_DELAY", 8*time.Second),
			PollDeadline:     getEnvDuration("POLL_DEADLINE", 4*time.Minute),
			PurgeOnReprocess: getEnvBool("PIPELINE_PURGE_ON_REPROCESS", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
