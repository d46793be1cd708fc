package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	KVBackend    string
	KVPath       string

	// Categories and budgets
	CategoryColumn bool
	BudgetScope    string

	// Month view cache
	CacheSize int
	CacheTTL  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	ExportBackend         string

	// Logging
	LogFormat string
	LogLevel  string
}

var (
	validDataBackends   = []string{"memory", "sqlite"}
	validKVBackends     = []string{"memory", "sqlite"}
	validExportBackends = []string{"memory", "sheets"}
	validBudgetScopes   = []string{"all", "month"}
	validLogFormats     = []string{"text", "json"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),
		KVBackend:    getEnv("KV_BACKEND", "sqlite"),
		KVPath:       getEnv("KV_PATH", "./data/local.db"),

		CategoryColumn: getEnvBool("CATEGORY_COLUMN", false),
		BudgetScope:    strings.ToLower(getEnv("BUDGET_SCOPE", "all")),

		CacheSize: getEnvInt("CACHE_SIZE", 24),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "month_changed"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Bilancio"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		ExportBackend:         getEnv("EXPORT_BACKEND", "memory"),

		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	errors = appendChoice(errors, "data backend", c.DataBackend, validDataBackends)
	errors = appendChoice(errors, "kv backend", c.KVBackend, validKVBackends)
	errors = appendChoice(errors, "export backend", c.ExportBackend, validExportBackends)
	errors = appendChoice(errors, "budget scope", c.BudgetScope, validBudgetScopes)
	errors = appendChoice(errors, "log format", c.LogFormat, validLogFormats)
	errors = appendChoice(errors, "log level", c.LogLevel, validLogLevels)

	if c.DataBackend == "sqlite" {
		errors = appendDBPath(errors, "SQLite database", c.SQLiteDBPath)
	}
	if c.KVBackend == "sqlite" {
		errors = appendDBPath(errors, "kv database", c.KVPath)
	}
	if c.DataBackend == "sqlite" && c.KVBackend == "sqlite" && c.SQLiteDBPath != "" &&
		filepath.Clean(c.SQLiteDBPath) == filepath.Clean(c.KVPath) {
		errors = append(errors, "kv database path must differ from the SQLite database path")
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be at least 1 second", c.CacheTTL))
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

	if c.ExportBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether month.changed events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func appendChoice(errors []string, name, value string, valid []string) []string {
	if !slices.Contains(valid, value) {
		return append(errors, fmt.Sprintf("invalid %s '%s': must be one of %v", name, value, valid))
	}
	return errors
}

func appendDBPath(errors []string, name, path string) []string {
	if path == "" {
		return append(errors, fmt.Sprintf("%s path cannot be empty", name))
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create %s directory '%s': %v", name, dir, err))
			}
		}
	}
	return errors
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
