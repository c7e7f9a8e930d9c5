package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TypeTotal is the sum of transaction amounts for one operation type.
type TypeTotal struct {
	Type  TransactionType
	Total decimal.Decimal
}

// Period selects a calendar year, or one month of it when Month is set.
// The zero Period covers all time.
type Period struct {
	Label string
	Year  int
	Month int // 1-12, 0 for the whole year
}

// AllTime reports whether the period applies no date filter.
func (p Period) AllTime() bool {
	return p.Year == 0
}

// Prefix is the leading part of a YYYY-MM-DD date inside the period:
// "2025" for a year, "2025-03" for a month, empty for all time.
func (p Period) Prefix() string {
	switch {
	case p.AllTime():
		return ""
	case p.Month == 0:
		return fmt.Sprintf("%04d", p.Year)
	default:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	if p.AllTime() {
		return true
	}
	return d.Year() == p.Year && (p.Month == 0 || int(d.Month()) == p.Month)
}
