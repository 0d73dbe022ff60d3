package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"petspese/internal/core"
)

func tx(t *testing.T, date, pet, category, amount string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", date, err)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		t.Fatalf("ParseAmount(%q): %v", amount, err)
	}
	return core.Transaction{Date: d, Pet: pet, Category: category, Amount: a}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
