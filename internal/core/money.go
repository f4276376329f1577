package core

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the only currency amounts are kept in.
const Currency = money.EUR

// FormatEuros renders an amount as euros, rounded half away from zero to
// the currency's fraction digits, e.g. "€12.35".
func FormatEuros(d decimal.Decimal) string {
	cur := money.New(0, Currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), Currency).Display()
}

