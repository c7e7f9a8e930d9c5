// Package memory is an in-process export sink for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"registru/internal/core"
	ports "registru/internal/sheets"
)

var _ ports.ExportSink = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.ExportRecord
}

func New() *Store {
	return &Store{}
}

// AppendExport stores the row and returns a synthetic row reference.
func (s *Store) AppendExport(_ context.Context, e core.ExportRecord) (string, error) {
	if e.ID == "" {
		return "", fmt.Errorf("export without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ExportIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.items))
	for _, e := range s.items {
		out[e.ID] = struct{}{}
	}
	return out, nil
}

// Rows returns a copy of the stored rows in insertion order.
func (s *Store) Rows() []core.ExportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExportRecord(nil), s.items...)
}
