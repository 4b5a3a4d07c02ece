package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	"budgie/internal/core"
	"budgie/internal/store"
)

// Backends accepted by BUDGIE_BACKEND.
var validBackends = []string{"memory", "file", "sqlite", "postgres"}

var validLogFormats = []string{"text", "json"}

type Config struct {
	// HTTP Server
	Port      string `env:"PORT" envDefault:"8081"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	// TrustedProxies are extra CIDRs whose forwarded headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Event store
	Backend      string `env:"BUDGIE_BACKEND" envDefault:"file"`
	EventFile    string `env:"BUDGIE_EVENT_FILE"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/budgie.db"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	// AMQP; publishing is disabled when the URL is empty.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"budgie"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"budgie.events"`

	// Google Sheets export
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetPrefix        string `env:"GOOGLE_SHEET_PREFIX" envDefault:"Budgie"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// Worker
	ExportInterval time.Duration `env:"EXPORT_INTERVAL" envDefault:"15m"`
	// ExportFile is an xlsx workbook the worker rewrites alongside, or
	// instead of, the spreadsheet.
	ExportFile string `env:"BUDGIE_EXPORT_FILE"`

	// Query cache
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"256"`

	// Today pins the reference date, for demos and reproducible output.
	Today string `env:"BUDGIE_TODAY"`
}

// Load reads the environment. A missing event file path defaults to
// ~/.budgie/event-stream.ndjson.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.EventFile == "" {
		if path, err := store.DefaultFilePath(); err == nil {
			cfg.EventFile = path
		}
	}
	return &cfg, nil
}

// Merge applies every non-zero field of overrides, typically command-line
// flags, on top of c.
func (c *Config) Merge(overrides Config) error {
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge config overrides: %w", err)
	}
	return nil
}

// TodayDate returns the pinned date, or the local calendar date.
func (c *Config) TodayDate() (core.Date, error) {
	if c.Today == "" {
		return core.Today(), nil
	}
	return core.ParseDate(c.Today)
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ExportEnabled reports whether Google Sheets export is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.LogFormat != "" && !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if !slices.Contains(validBackends, c.Backend) {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	switch c.Backend {
	case "file":
		if c.EventFile == "" {
			errors = append(errors, "event file path cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExportEnabled() {
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ExportFile != "" && !strings.EqualFold(filepath.Ext(c.ExportFile), ".xlsx") {
		errors = append(errors, fmt.Sprintf("invalid export file '%s': must end in .xlsx", c.ExportFile))
	}

	if c.ExportInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 minute", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	if c.Today != "" {
		if _, err := core.ParseDate(c.Today); err != nil {
			errors = append(errors, fmt.Sprintf("invalid BUDGIE_TODAY '%s': must be YYYY-MM-DD", c.Today))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
