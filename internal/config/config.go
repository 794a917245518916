package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Dataset source
	DataBackend string `env:"DATA_BACKEND" envDefault:"csv"`
	DataPath    string `env:"DATA_PATH" envDefault:"./data/sample_vehicle_data.csv"`
	XLSXSheet   string `env:"XLSX_SHEET"`

	// Google Sheets source
	GoogleSpreadsheetID       string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetRange          string `env:"GOOGLE_SHEET_RANGE" envDefault:"Registrations!A:D"`
	GoogleServiceAccountJSON  string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile  string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleApplicationCredFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// AMQP snapshot publishing (optional)
	AMQPURL        string `env:"AMQP_URL"`
	AMQPExchange   string `env:"AMQP_EXCHANGE" envDefault:"regdash"`
	AMQPRoutingKey string `env:"AMQP_ROUTING_KEY" envDefault:"metrics.snapshot"`

	// Dashboard
	CacheSize                int           `env:"CACHE_SIZE" envDefault:"128"`
	CacheTTL                 time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	QueryTimeout             time.Duration `env:"QUERY_TIMEOUT" envDefault:"7s"`
	DefaultManufacturerLimit int           `env:"DEFAULT_MANUFACTURER_LIMIT" envDefault:"5"`
	HeadlineUndefinedAsZero  bool          `env:"HEADLINE_UNDEFINED_AS_ZERO" envDefault:"true"`
	ExportRateLimit          int           `env:"EXPORT_RATE_LIMIT" envDefault:"30"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// ValidBackends lists the supported dataset sources.
var ValidBackends = []string{"csv", "xlsx", "sheets", "memory"}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	// File backends need a readable path; a missing file is reported at load time
	// as a dataset error, so only emptiness is checked here.
	if c.DataBackend == "csv" || c.DataBackend == "xlsx" {
		if strings.TrimSpace(c.DataPath) == "" {
			errors = append(errors, fmt.Sprintf("data path cannot be empty when using %s backend", c.DataBackend))
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetRange == "" {
			errors = append(errors, "Google sheet range is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredFile == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	// Validate dashboard settings
	if c.CacheSize < 1 || c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.QueryTimeout < 100*time.Millisecond || c.QueryTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be between 100ms and 1m", c.QueryTimeout))
	}
	if c.DefaultManufacturerLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid default manufacturer limit %d: must not be negative", c.DefaultManufacturerLimit))
	}
	if c.ExportRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid export rate limit %d: must be at least 1", c.ExportRateLimit))
	}

	// Validate logging
	if _, err := c.SlogLevel(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel)
	}
	return lvl, nil
}
