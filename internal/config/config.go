package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"telemetry_ingest/internal/loader"

	"github.com/hashicorp/go-multierror"
)

const (
	StoreS3  = "s3"
	StoreGCS = "gcs"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds everything a batch run needs from the environment.
type Config struct {
	ObjectStore        string
	BucketName         string
	AWSRegion          string
	S3Endpoint         string
	GCSCredentialsFile string

	DatabaseDriver string
	DatabaseURL    string
	TableName      string
	DBMaxConns     int

	RedisAddr   string
	ProgressTTL time.Duration

	PushgatewayURL string

	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string

	Env      string
	LogLevel string
}

// Load reads the configuration from environment variables, applying defaults.
// Malformed numbers and durations are reported by Validate.
func Load() (Config, error) {
	cfg := Config{
		ObjectStore:        strings.ToLower(getEnvWithDefault("OBJECT_STORE", StoreS3)),
		BucketName:         getEnvWithDefault("BUCKET_NAME", "projecty-test-data"),
		AWSRegion:          getEnvWithDefault("AWS_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		DatabaseDriver:     strings.ToLower(getEnvWithDefault("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		TableName:          getEnvWithDefault("TABLE_NAME", loader.DefaultTable),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		PushgatewayURL:     os.Getenv("PUSHGATEWAY_URL"),
		NtfyURL:            getEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:          os.Getenv("NTFY_TOPIC"),
		NtfyPriority:       os.Getenv("NTFY_PRIORITY"),
		Env:                os.Getenv("ENV"),
		LogLevel:           strings.ToLower(os.Getenv("LOGLEVEL")),
	}

	var result *multierror.Error
	maxConns, err := strconv.Atoi(getEnvWithDefault("DB_MAX_CONNS", "2"))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("DB_MAX_CONNS: %w", err))
	}
	cfg.DBMaxConns = maxConns

	ttl, err := time.ParseDuration(getEnvWithDefault("PROGRESS_TTL", "24h"))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("PROGRESS_TTL: %w", err))
	}
	cfg.ProgressTTL = ttl

	if result != nil {
		return cfg, result.ErrorOrNil()
	}
	return cfg, cfg.Validate()
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var result *multierror.Error
	switch c.ObjectStore {
	case StoreS3, StoreGCS:
	default:
		result = multierror.Append(result, fmt.Errorf("OBJECT_STORE must be %q or %q, got %q", StoreS3, StoreGCS, c.ObjectStore))
	}
	if c.BucketName == "" {
		result = multierror.Append(result, errors.New("BUCKET_NAME environment variable is required"))
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		result = multierror.Append(result, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		result = multierror.Append(result, errors.New("DATABASE_URL environment variable is required"))
	}
	if c.TableName == "" {
		result = multierror.Append(result, errors.New("TABLE_NAME must not be empty"))
	}
	if c.DBMaxConns < 1 {
		result = multierror.Append(result, fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns))
	}
	if c.ProgressTTL < 0 {
		result = multierror.Append(result, fmt.Errorf("PROGRESS_TTL must not be negative, got %s", c.ProgressTTL))
	}
	return result.ErrorOrNil()
}

// Production reports whether ENV selects production logging.
func (c Config) Production() bool { return c.Env == "production" }

// getEnvWithDefault fetches an environment variable with a default fallback.
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
