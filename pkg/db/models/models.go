package models

import "github.com/shopspring/decimal"

// MaxMoney is the largest value a numeric(12,2) money column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

// MoneyFits reports whether v can be stored in a money column without
// overflowing it.
func MoneyFits(v decimal.Decimal) bool {
	return !v.GreaterThan(MaxMoney)
}

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Retailer{},
		&Product{},
		&Order{},
		&OrderLine{},
		&Payment{},
	}
}
