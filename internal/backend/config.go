package backend

import (
	"fmt"
	"time"

	"registru/internal/config"
)

// Config holds what the factory needs to open a backend.
type Config struct {
	DBDriver string
	DSN      string

	DefaultCostCenter string
	ReportCacheSize   int
	ReportCacheTTL    time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Sink                  SinkType
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sink := SinkType(appConfig.ExportSink)
	if !sink.IsValid() {
		return Config{}, fmt.Errorf("invalid export sink in config: %s", appConfig.ExportSink)
	}

	return Config{
		DBDriver: appConfig.DBDriver,
		DSN:      appConfig.DSN(),

		DefaultCostCenter: appConfig.DefaultCostCenter,
		ReportCacheSize:   appConfig.ReportCacheSize,
		ReportCacheTTL:    appConfig.ReportCacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sink:                  sink,
		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleSheetName,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if !c.Sink.IsValid() {
		return fmt.Errorf("invalid export sink: %s", c.Sink)
	}
	if c.Sink == SheetsSink {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets sink")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("either GoogleCredentialsFile or GoogleCredentialsJSON must be provided for sheets sink")
		}
	}
	return nil
}
