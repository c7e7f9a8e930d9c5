package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"registru/internal/log"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	SinkMemory = "memory"
	SinkSheets = "sheets"

	minJWTSecretLen = 32
)

type Config struct {
	// HTTP Server
	Port           string        `env:"PORT" envDefault:"8081"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"8h"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Database
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN        string `env:"DB_DSN"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/registru.db"`

	// Allocation
	DefaultCostCenter string `env:"ALLOCATION_DEFAULT_CENTER" envDefault:"CR001"`

	// Report cache. A zero TTL disables it so reports always scan the tables.
	ReportCacheSize int           `env:"REPORT_CACHE_SIZE" envDefault:"100"`
	ReportCacheTTL  time.Duration `env:"REPORT_CACHE_TTL" envDefault:"0"`

	// AMQP (optional)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"registru"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"export_records"`

	// Export mirror
	ExportSink            string        `env:"EXPORT_SINK" envDefault:"memory"`
	GoogleSpreadsheetID   string        `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName       string        `env:"GOOGLE_SHEET_NAME" envDefault:"Exports"`
	GoogleCredentialsFile string        `env:"GOOGLE_CREDENTIALS_FILE"`
	GoogleCredentialsJSON string        `env:"GOOGLE_CREDENTIALS_JSON"`
	ReconcileInterval     time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DSN returns the data source name for the selected driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite && c.DBDSN == "" {
		return c.SQLiteDBPath
	}
	return c.DBDSN
}

// Validate checks the settings every binary needs and reports all
// problems at once.
func (c *Config) Validate() error {
	return joinErrors(c.problems())
}

func (c *Config) problems() []string {
	var errors []string

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DSN() == "" {
			errors = append(errors, "SQLite database path cannot be empty")
		} else if dir := filepath.Dir(c.DSN()); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case DriverMySQL:
		if c.DBDSN == "" {
			errors = append(errors, "DB_DSN is required when DB_DRIVER is mysql")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of [sqlite mysql]", c.DBDriver))
	}

	if strings.TrimSpace(c.DefaultCostCenter) == "" {
		errors = append(errors, "default cost center cannot be empty")
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

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL != 0 && c.ReportCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be 0 (disabled) or at least 1 second", c.ReportCacheTTL))
	}

	return errors
}

// ValidateServer adds the checks specific to the HTTP server.
func (c *Config) ValidateServer() error {
	errors := c.problems()

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.JWTSecret) < minJWTSecretLen {
		errors = append(errors, fmt.Sprintf("JWT_SECRET must be at least %d characters", minJWTSecretLen))
	}
	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}
	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy CIDR '%s'", cidr))
		}
	}

	return joinErrors(errors)
}

// ValidateWorker adds the checks specific to the export worker.
func (c *Config) ValidateWorker() error {
	errors := c.problems()

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the export worker")
	}

	switch c.ExportSink {
	case SinkMemory:
	case SinkSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets sink")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets sink")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export sink '%s': must be one of [memory sheets]", c.ExportSink))
	}

	if c.ReconcileInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 second", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}

	return joinErrors(errors)
}

func joinErrors(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
}
