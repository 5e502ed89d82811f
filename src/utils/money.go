package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders a decimal amount as US dollars, e.g. "$1,234.50".
// Amounts are rounded half away from zero to whole cents.
func FormatUSD(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatSignedUSD is FormatUSD with an explicit "+" on positive amounts.
func FormatSignedUSD(amount decimal.Decimal) string {
	if amount.Shift(2).Round(0).IsPositive() {
		return "+" + FormatUSD(amount)
	}
	return FormatUSD(amount)
}
