// Package core provides the domain types and the pure status and
// aggregation rules of the dashboard.
//
// This file contains the boundary coercion from loosely typed store values
// to exact decimals, and the display helpers for monetary amounts.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a numeric value coming from the record store into an
// exact decimal. The store hands numeric columns back as strings, so strings
// are the common case; native numbers and nil are accepted too.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Empty strings and nil coerce to zero. Negative values are passed through;
// range checks belong to entity validation.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount(nil)      -> 0
//	ParseAmount("abc")    -> error
func ParseAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return n, nil
	case string:
		return parseDecimalString(n)
	case []byte:
		return parseDecimalString(string(n))
	case json.Number:
		return parseDecimalString(n.String())
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

// ParseQuantity is ParseAmount for quantities.
func ParseQuantity(v any) (decimal.Decimal, error) {
	d, err := ParseAmount(v)
	if err != nil {
		return decimal.Zero, ErrInvalidQuantity
	}
	return d, nil
}

// ParsePositiveAmount parses user input for a payment or price and rejects
// zero and negative values.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimalString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func parseDecimalString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	body := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if body == "" || strings.Count(body, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range body {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCents rounds half away from zero to two fraction digits.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders an amount with exactly two fraction digits ("26.00").
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCurrency renders an amount with a leading currency symbol and the
// sign in front of it ("-$200.00").
func FormatCurrency(symbol string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
