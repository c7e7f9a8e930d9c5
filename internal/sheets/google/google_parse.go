package google

import (
	"fmt"
	"strconv"
	"strings"

	"registru/internal/core"
)

// exportRow lays an export out as A..E: id, transaction, system, date, amount.
func exportRow(e core.ExportRecord) []any {
	return []any{e.ID, e.TransactionID, e.System, e.ExportedOn.String(), core.FormatAmount(e.Amount)}
}

// exportIDs collects the non-empty first cells, skipping a header row.
func exportIDs(values [][]any) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" || (i == 0 && strings.EqualFold(id, "id")) {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
