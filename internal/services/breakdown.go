package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"petspese/internal/core"
)

// CategoryBreakdown maps a category to the amount spent on it. Only categories
// that occurred are present.
type CategoryBreakdown map[string]decimal.Decimal

// ComputeCategoryBreakdown sums one pet's spend per category for a calendar month.
// An unknown pet or an empty month yields an empty breakdown.
func ComputeCategoryBreakdown(log core.TransactionLog, pet string, month int) CategoryBreakdown {
	out := CategoryBreakdown{}
	for _, t := range log {
		if t.Pet != pet || t.Date.Month() != month {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// Sorted returns the categories by amount descending, then by name.
func (b CategoryBreakdown) Sorted() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(b))
	for name, amount := range b {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total sums every category.
func (b CategoryBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}
