package backend

import (
	"context"

	"registru/internal/amqp"
	"registru/internal/cache"
	"registru/internal/services"
	"registru/internal/sheets"
	"registru/internal/storage"
)

// CleanupFunc releases the resources opened by the factory.
type CleanupFunc func() error

// Backend is everything a binary needs to serve the registry.
type Backend struct {
	Repository  *storage.Repository
	Registry    *services.Registry
	Publisher   *amqp.Client // nil when AMQP is not configured
	ReportCache *cache.LRUCache[[]string] // nil when REPORT_CACHE_TTL is 0
	Cleanup     CleanupFunc
}

// Factory opens backends from configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Backend, error)
	OpenExportSink(ctx context.Context, config Config) (sheets.ExportSink, error)
}

// SinkType selects where the export worker mirrors export rows.
type SinkType string

const (
	MemorySink SinkType = "memory"
	SheetsSink SinkType = "sheets"
)

func (st SinkType) String() string {
	return string(st)
}

func (st SinkType) IsValid() bool {
	switch st {
	case MemorySink, SheetsSink:
		return true
	default:
		return false
	}
}
