package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
)

const (
	defaultMinInterval    = 5 * time.Minute
	defaultRequestTimeout = 30 * time.Second
	defaultRetryInitial   = time.Second
)

// Config holds runtime configuration for the watcher service.
type Config struct {
	DatabaseURL    string
	Catalog        feed.Catalog
	MinInterval    time.Duration
	RequestTimeout time.Duration
	Retry          feed.RetryPolicy
	DryRun         bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		Catalog: feed.DefaultCatalog().WithOverrides(func(key string) string {
			return strings.TrimSpace(os.Getenv(key))
		}),
		Retry: feed.RetryPolicy{InitialInterval: defaultRetryInitial},
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" && !cfg.DryRun {
		return cfg, errors.New("DATABASE_URL is required")
	}

	cfg.MinInterval = defaultMinInterval
	if v := strings.TrimSpace(os.Getenv("WATCHER_MIN_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WATCHER_MIN_INTERVAL: %w", err)
		}
		cfg.MinInterval = d
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := strings.TrimSpace(os.Getenv("WATCHER_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WATCHER_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("FETCH_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid FETCH_MAX_RETRIES: %s", v)
		}
		cfg.Retry.MaxRetries = n
	}
	if v := strings.TrimSpace(os.Getenv("FETCH_RETRY_INITIAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FETCH_RETRY_INITIAL: %w", err)
		}
		cfg.Retry.InitialInterval = d
	}

	return cfg, nil
}
