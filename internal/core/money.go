// Package core provides amount parsing and formatting.
//
// Amounts are kept as decimal.Decimal end to end so sums over the log are exact.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an optional
// leading currency symbol. Zero is a valid amount; negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("$20")    -> 20, nil
//	ParseAmount("1,234")  -> 0, ErrAmbiguousAmount
//	ParseAmount("-1")     -> 0, ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Only one separator is allowed, so "1,234.50" is rejected rather than guessed.
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		return decimal.Zero, ErrInvalidAmount
	}
	// "1,234" reads as a thousand or as a decimal; neither is assumed.
	if thousandsGrouping.MatchString(s) {
		return decimal.Zero, ErrAmbiguousAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

var thousandsGrouping = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)

// FormatAmount renders an amount with two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
