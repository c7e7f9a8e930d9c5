package core

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the width of every generated identifier.
const IDLength = 13

// Identifier prefixes, one per table.
const (
	PrefixTransaction = "TR"
	PrefixRule        = "RG"
	PrefixBudget      = "BG"
	PrefixAllocation  = "RP"
	PrefixExport      = "EX"
	PrefixPayroll     = "CS"
	PrefixAppointment = "PG"
	PrefixAudit       = "LG"
	PrefixUser        = "US"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns prefix followed by 11 lowercase base32 characters taken
// from a random UUID, for a total of IDLength characters.
func NewID(prefix string) string {
	u := uuid.New()
	suffix := strings.ToLower(idEncoding.EncodeToString(u[:]))
	width := IDLength - len(prefix)
	if width < 0 {
		return prefix[:IDLength]
	}
	return prefix + suffix[:width]
}
