package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FES Sperrmüll booking endpoint (public, no login). The query parameters
// select the Extbase controller action; cHash is bound to exactly this
// parameter set.
const DefaultAPIURL = "https://www.fes-frankfurt.de/services/sperrmuell" +
	"?cid=33598" +
	"&tx_fesbulkywaste_booking%5Baction%5D=registration" +
	"&tx_fesbulkywaste_booking%5Bcontroller%5D=Booking" +
	"&type=6000" +
	"&cHash=bcd7a4fcebba94583574b383572fc838"

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPPort    int
	DataDir     string

	APIURL         string
	BookingPageURL string

	// Scrape pacing and retry behaviour against the FES API.
	ScrapeDelay    time.Duration
	ScrapeInterval time.Duration
	RetryAfter429  time.Duration
	MaxRetries429  int
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnv("SPERRMUELL_ENV", "development"),
		HTTPPort:       getEnvInt("SPERRMUELL_HTTP_PORT", 8080),
		DataDir:        getEnv("SPERRMUELL_DATA_DIR", "./data"),
		APIURL:         getEnv("SPERRMUELL_FES_API_URL", DefaultAPIURL),
		BookingPageURL: getEnv("SPERRMUELL_FES_BOOKING_PAGE_URL", "https://www.fes-frankfurt.de/services/sperrmuell"),
		ScrapeDelay:    getEnvDuration("SPERRMUELL_SCRAPE_DELAY", 3*time.Second),
		ScrapeInterval: getEnvDuration("SPERRMUELL_SCRAPE_INTERVAL", 24*time.Hour),
		RetryAfter429:  getEnvDuration("SPERRMUELL_RETRY_AFTER_429", 90*time.Second),
		MaxRetries429:  getEnvInt("SPERRMUELL_MAX_RETRIES_429", 2),
	}

	if cfg.ScrapeDelay <= 0 {
		return nil, fmt.Errorf("SPERRMUELL_SCRAPE_DELAY must be positive")
	}
	if cfg.ScrapeInterval <= 0 {
		return nil, fmt.Errorf("SPERRMUELL_SCRAPE_INTERVAL must be positive")
	}
	if cfg.MaxRetries429 < 0 {
		return nil, fmt.Errorf("SPERRMUELL_MAX_RETRIES_429 must not be negative")
	}

	return cfg, nil
}

// DBPath returns the sqlite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "sperrmuell.db")
}

// AddressesPath returns the location of the static address sample list.
func (c *Config) AddressesPath() string {
	return filepath.Join(c.DataDir, "addresses.json")
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}
