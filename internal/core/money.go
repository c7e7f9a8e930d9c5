// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal values and rendered with two
// decimals in MDL, the currency of every record in the registry.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is appended to every rendered amount.
const Currency = "MDL"

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to an amount rounded half-up to
// two decimals.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative values are rejected; zero is accepted here and rejected by the
// entity validators that require a positive amount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ParsePercentage parses a percentage and checks it lies in [0,100].
func ParsePercentage(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, ErrInvalidPercentage
	}
	if d.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidPercentage
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, e.g. "1200.50".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMDL renders an amount with two decimals followed by the currency.
func FormatMDL(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + Currency
}

// CalculatePay returns base / StandardHours * hours rounded to two decimals.
func CalculatePay(base decimal.Decimal, hours int) decimal.Decimal {
	return base.
		Mul(decimal.NewFromInt(int64(hours))).
		Div(decimal.NewFromInt(StandardHours)).
		Round(2)
}
