package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Bank API
	APIBaseURL string

	// Backend selection: "memory" or "http"
	DataBackend string

	// Session persistence
	SQLiteDBPath string

	// Login credentials for non-interactive startup; optional.
	LoginEmail    string
	LoginPassword string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets statement export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Exchange rate table override; empty uses the embedded defaults.
	RatesFile string

	// Query layer
	FetchTimeout         time.Duration
	RatesRefreshInterval time.Duration
	CacheCleanupInterval time.Duration
	CacheSize            int
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080/api"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bankdash.db"),

		LoginEmail:    getEnv("LOGIN_EMAIL", ""),
		LoginPassword: getEnv("LOGIN_PASSWORD", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bankdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transfer_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Statement"),

		RatesFile: getEnv("RATES_FILE", ""),

		FetchTimeout:         getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		RatesRefreshInterval: getEnvDuration("RATES_REFRESH_INTERVAL", 30*time.Second),
		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute),
		CacheSize:            getEnvInt("CACHE_SIZE", 256),
	}
}

// Validate returns an error describing every invalid setting at once.
func (c *Config) Validate() error {
	var errors []string

	switch c.DataBackend {
	case "memory", "http":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be 'memory' or 'http'", c.DataBackend))
	}

	if c.DataBackend == "http" {
		if c.APIBaseURL == "" {
			errors = append(errors, "API base URL cannot be empty when using http backend")
		} else if parsed, err := url.Parse(c.APIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	}
	if c.RatesRefreshInterval != 0 && c.RatesRefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates refresh interval %v: must be zero or at least 1 second", c.RatesRefreshInterval))
	}
	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
