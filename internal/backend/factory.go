package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"registru/internal/amqp"
	"registru/internal/cache"
	"registru/internal/report"
	"registru/internal/services"
	"registru/internal/sheets"
	gsheet "registru/internal/sheets/google"
	"registru/internal/sheets/memory"
	"registru/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Open connects the repository, the optional AMQP publisher and the
// report cache, and builds the registry on top of them.
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.Open(ctx, config.DBDriver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	// AMQP is optional: exports are stored either way and the worker
	// reconciles rows that were never announced.
	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without export notifications", "error", err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	// Other processes may write the same database, so cached reports can
	// be stale for up to the TTL. The cache is only built when asked for.
	var (
		reportCache *cache.LRUCache[[]string]
		generator   = report.NewGenerator(repo, nil)
	)
	if config.ReportCacheTTL > 0 {
		reportCache = cache.NewLRUCache[[]string](config.ReportCacheSize, config.ReportCacheTTL)
		generator = report.NewGenerator(repo, reportCache)
	}

	opts := []services.Option{
		services.WithErrorClassifiers(storage.IsDuplicate, storage.IsNotFound),
		services.WithReports(generator),
	}
	if config.DefaultCostCenter != "" {
		opts = append(opts, services.WithDefaultCenter(config.DefaultCostCenter))
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}

	f.logger.Info("Initialized repository",
		"driver", repo.Driver(),
		"amqp_enabled", publisher != nil,
		"report_cache", reportCache != nil)

	return &Backend{
		Repository:  repo,
		Registry:    services.NewRegistry(repo, opts...),
		Publisher:   publisher,
		ReportCache: reportCache,
		Cleanup: func() error {
			var errs []error
			if publisher != nil {
				errs = append(errs, publisher.Close())
			}
			errs = append(errs, repo.Close())
			return errors.Join(errs...)
		},
	}, nil
}

// OpenExportSink returns the spreadsheet mirror used by the export worker.
func (f *DefaultFactory) OpenExportSink(ctx context.Context, config Config) (sheets.ExportSink, error) {
	switch config.Sink {
	case SheetsSink:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleCredentialsFile,
			CredentialsJSON: config.GoogleCredentialsJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets export sink", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil
	case MemorySink:
		f.logger.Info("Initialized in-memory export sink")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export sink: %s", config.Sink)
	}
}
