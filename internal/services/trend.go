package services

import (
	"github.com/shopspring/decimal"

	"petspese/internal/core"
)

// AllPets is the synthetic series holding the sum across every pet.
const AllPets = "All"

// MonthlyTrend maps a month (1-12) to per-pet sums, including AllPets.
// It is dense: every month and every pet of the log is present.
type MonthlyTrend map[int]map[string]decimal.Decimal

// ComputeMonthlyTrend sums the log per calendar month and pet. Years are ignored,
// so the same month of different years shares a bucket.
func ComputeMonthlyTrend(log core.TransactionLog) MonthlyTrend {
	pets := Entities(log)
	trend := make(MonthlyTrend, 12)
	for m := 1; m <= 12; m++ {
		row := make(map[string]decimal.Decimal, len(pets)+1)
		for _, p := range pets {
			row[p] = decimal.Zero
		}
		row[AllPets] = decimal.Zero
		trend[m] = row
	}
	for _, t := range log {
		row, ok := trend[t.Date.Month()]
		if !ok {
			continue
		}
		// A pet literally named "All" is folded into the total, never double counted.
		if t.Pet != AllPets {
			row[t.Pet] = row[t.Pet].Add(t.Amount)
		}
		row[AllPets] = row[AllPets].Add(t.Amount)
	}
	return trend
}

// Series returns the 12 monthly values of one pet, January first.
func (mt MonthlyTrend) Series(pet string) []decimal.Decimal {
	out := make([]decimal.Decimal, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = mt[m][pet]
	}
	return out
}

// Total sums every month of one pet.
func (mt MonthlyTrend) Total(pet string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range mt.Series(pet) {
		total = total.Add(v)
	}
	return total
}

// Entities lists the distinct pets of the log in order of first appearance.
func Entities(log core.TransactionLog) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range log {
		if _, ok := seen[t.Pet]; ok {
			continue
		}
		seen[t.Pet] = struct{}{}
		out = append(out, t.Pet)
	}
	return out
}

// Months lists the distinct calendar months present in the log, in order of
// first appearance.
func Months(log core.TransactionLog) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, t := range log {
		m := t.Date.Month()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
