// Package cny formats renminbi amounts for reports and notifications.
package cny

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var formatter = money.NewFormatter(2, ".", ",", "¥", "$1")

// Format renders amount as ¥1,234.56 (negative: -¥1,234.56)
func Format(amount decimal.Decimal) string {
	return formatter.Format(minor(amount))
}

// FormatSigned is Format with an explicit + for positive amounts
func FormatSigned(amount decimal.Decimal) string {
	if amount.Round(2).IsPositive() {
		return "+" + Format(amount)
	}
	return Format(amount)
}

// FormatFloat is Format for float amounts
func FormatFloat(amount float64) string {
	return Format(decimal.NewFromFloat(amount))
}

// minor converts to fen, rounding half away from zero
func minor(amount decimal.Decimal) int64 {
	return amount.Shift(int32(money.GetCurrency(money.CNY).Fraction)).Round(0).IntPart()
}
