package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// PetMonthOverview is a compact summary for one pet in one calendar month.
type PetMonthOverview struct {
	Pet        string
	Month      int // 1-12
	Profile    Profile
	HasProfile bool
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}
