package bot

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatAmount renders d in the currency's own notation, e.g. R$1.234,56
func formatAmount(d decimal.Decimal, currency string) string {
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, currency).Display()
}
