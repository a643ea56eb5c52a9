package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"120000", 12000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m := MoneyFromDecimal(decimal.RequireFromString("10.555"))
	if m.Cents != 1056 {
		t.Fatalf("expected 1056, got %d", m.Cents)
	}
	if !m.Decimal().Equal(decimal.RequireFromString("10.56")) {
		t.Fatalf("unexpected decimal %s", m.Decimal())
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0"},
		{100, "1"},
		{12000000, "120.000"},
		{123456700, "1.234.567"},
		{123450, "1.234,50"},
		{-123450, "-1.234,50"},
		{5, "0,05"},
		// beyond float64's exact integer range
		{9007199254740993, "90.071.992.547.409,93"},
		{9223372036854775807, "92.233.720.368.547.758,07"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFormatWithDots(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"1":       "1",
		"123":     "123",
		"1234":    "1.234",
		"123456":  "123.456",
		"1234567": "1.234.567",
	}
	for in, want := range cases {
		if got := FormatWithDots(in); got != want {
			t.Errorf("FormatWithDots(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnformat(t *testing.T) {
	if got := Unformat("1.234.567 đ"); got != "1234567" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatWithDots(Unformat("12.00.0")); got != "12.000" {
		t.Fatalf("round trip produced %q", got)
	}
}
