package sheets

import (
	"context"

	"registru/internal/core"
)

// Ports for the accounting spreadsheet that mirrors export runs.
type (
	ExportWriter interface {
		AppendExport(ctx context.Context, e core.ExportRecord) (rowRef string, err error)
	}

	// ExportIndex reports which export ids are already present in the sheet.
	ExportIndex interface {
		ExportIDs(ctx context.Context) (map[string]struct{}, error)
	}

	ExportSink interface {
		ExportWriter
		ExportIndex
	}
)
