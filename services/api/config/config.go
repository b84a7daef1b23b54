package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
)

const (
	defaultPort            = 8080
	defaultFetchTimeout    = 30 * time.Second
	defaultRetryInitial    = time.Second
	defaultParkRideCSV     = "data_grand_lyon/parcs_relais.csv"
	defaultBikeHistoryCSV  = "data_grand_lyon/velov_concat.csv"
	defaultSessionTTL      = 30 * time.Minute
	defaultSessionCapacity = 1000
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	Port        int
	BearerToken string

	// Grand Lyon credentials for the authenticated feeds. Supplied by the
	// deployment, never committed.
	Credentials feed.Credentials

	FetchTimeout time.Duration
	Retry        feed.RetryPolicy
	Catalog      feed.Catalog

	RulesPath      string
	ParkRideCSV    string
	BikeHistoryCSV string
	// DatabaseURL switches the historical corpus to the watcher archive when set.
	DatabaseURL string

	SessionTTL      time.Duration
	SessionCapacity int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:            defaultPort,
		FetchTimeout:    defaultFetchTimeout,
		Retry:           feed.RetryPolicy{InitialInterval: defaultRetryInitial},
		ParkRideCSV:     defaultParkRideCSV,
		BikeHistoryCSV:  defaultBikeHistoryCSV,
		SessionTTL:      defaultSessionTTL,
		SessionCapacity: defaultSessionCapacity,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")
	cfg.Credentials = feed.Credentials{
		Username: os.Getenv("GRANDLYON_USERNAME"),
		Password: os.Getenv("GRANDLYON_PASSWORD"),
	}

	var err error
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return cfg, err
	}
	if cfg.Retry.InitialInterval, err = durationEnv("FETCH_RETRY_INITIAL", cfg.Retry.InitialInterval); err != nil {
		return cfg, err
	}
	if retries := os.Getenv("FETCH_MAX_RETRIES"); retries != "" {
		n, err := strconv.Atoi(retries)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid FETCH_MAX_RETRIES: %s", retries)
		}
		cfg.Retry.MaxRetries = n
	}

	cfg.Catalog = feed.DefaultCatalog().WithOverrides(os.Getenv)

	cfg.RulesPath = os.Getenv("RULES_PATH")
	if path := os.Getenv("PARK_RIDE_CSV"); path != "" {
		cfg.ParkRideCSV = path
	}
	if path := os.Getenv("BIKE_HISTORY_CSV"); path != "" {
		cfg.BikeHistoryCSV = path
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", cfg.SessionTTL); err != nil {
		return cfg, err
	}
	if capStr := os.Getenv("SESSION_CAPACITY"); capStr != "" {
		n, err := strconv.Atoi(capStr)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid SESSION_CAPACITY: %s", capStr)
		}
		cfg.SessionCapacity = n
	}

	return cfg, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return d, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
