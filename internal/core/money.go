// Package core provides money parsing and handling utilities.
//
// Amounts are kept in integer minor units. Parsing goes through decimal
// arithmetic so "12.345" rounds half-up to 1235 without float drift.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// (1<<63 - 1) / 100, the largest whole amount that still fits in cents.
	maxWhole = decimal.NewFromInt((1<<63 - 1) / 100)
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The result
// is always positive. Returns ErrInvalidAmount for invalid formats, signs,
// exponents, zero or out-of-range values.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s = s + "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.GreaterThan(maxWhole) {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyFromDecimal converts a decimal amount to Money, rounding half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with dot thousand separators and a comma before
// the cents, e.g. 1.234.567,89. Whole amounts drop the fraction.
func (m Money) String() string {
	sign := ""
	if m.Cents < 0 {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(m.Decimal().Abs().StringFixed(2), ".")
	if frac == "00" {
		return sign + FormatWithDots(whole)
	}
	return sign + FormatWithDots(whole) + "," + frac
}

// Unformat keeps only the digits of a user-typed amount.
func Unformat(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatWithDots groups a digit string in threes with dots: "1234567" -> "1.234.567".
func FormatWithDots(digitsOnly string) string {
	if digitsOnly == "" {
		return ""
	}
	var b strings.Builder
	lead := len(digitsOnly) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digitsOnly[:lead])
	for i := lead; i < len(digitsOnly); i += 3 {
		b.WriteByte('.')
		b.WriteString(digitsOnly[i : i+3])
	}
	return b.String()
}
