package storage

import (
	"database/sql"
	"fmt"
	"time"

	"registru/internal/core"
)

// timestampLayout is used for audit timestamps. It sorts lexicographically
// and is accepted by MySQL DATETIME(6) columns.
const timestampLayout = "2006-01-02 15:04:05.000000"

// parseDay accepts YYYY-MM-DD optionally followed by a time component, which
// is how both drivers return DATE columns when time parsing is off.
func parseDay(s string) (core.Date, error) {
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{timestampLayout, time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
