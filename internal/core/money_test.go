package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.005", "0.005", true},
		{" 2.50 ", "2.5", true},
		{"$20", "20", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,234.50", "", false},
		{"1,234", "", false},
		{"$1,234", "", false},
		{"12,345,678", "", false},
		{"1234,5", "1234.5", true},
		{"$1234", "1234", true},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountNegativeSentinel(t *testing.T) {
	if _, err := ParseAmount("-0.50"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestParseAmountAmbiguousSentinel(t *testing.T) {
	for _, in := range []string{"1,234", "$1,234", "999,000"} {
		if _, err := ParseAmount(in); !errors.Is(err, ErrAmbiguousAmount) {
			t.Fatalf("%q: expected ErrAmbiguousAmount, got %v", in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("20")); got != "20.00" {
		t.Fatalf("expected 20.00, got %s", got)
	}
	if got := FormatAmount(decimal.RequireFromString("3.456")); got != "3.46" {
		t.Fatalf("expected 3.46, got %s", got)
	}
}
