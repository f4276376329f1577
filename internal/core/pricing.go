package core

import "github.com/shopspring/decimal"

type (
	// PriceInput is the set of optional price fields a submission may carry.
	// UnitPrice is the legacy alias of SellPrice.
	PriceInput struct {
		UnitPrice decimal.NullDecimal
		BuyPrice  decimal.NullDecimal
		SellPrice decimal.NullDecimal
	}

	// Prices are resolved per-kilogram prices.
	Prices struct {
		Buy  decimal.Decimal
		Sell decimal.Decimal
	}

	// Totals are the amounts derived from a quantity and its prices.
	Totals struct {
		Prices  Prices
		Revenue decimal.Decimal
		Cost    decimal.Decimal
		Profit  decimal.Decimal
	}
)

// Validate rejects negative prices, checking unit, buy and sell in order.
func (in PriceInput) Validate() error {
	if in.UnitPrice.Valid && in.UnitPrice.Decimal.IsNegative() {
		return &FieldError{Field: "unitPrice", Err: ErrInvalidPrice}
	}
	if in.BuyPrice.Valid && in.BuyPrice.Decimal.IsNegative() {
		return &FieldError{Field: "buyPrice", Err: ErrInvalidPrice}
	}
	if in.SellPrice.Valid && in.SellPrice.Decimal.IsNegative() {
		return &FieldError{Field: "sellPrice", Err: ErrInvalidPrice}
	}
	return nil
}

// ResolvePrices picks the effective prices: buy defaults to 0 and sell falls
// back to the legacy unit price.
func ResolvePrices(in PriceInput) (Prices, error) {
	if err := in.Validate(); err != nil {
		return Prices{}, err
	}
	var p Prices
	if in.BuyPrice.Valid {
		p.Buy = in.BuyPrice.Decimal
	}
	switch {
	case in.SellPrice.Valid:
		p.Sell = in.SellPrice.Decimal
	case in.UnitPrice.Valid:
		p.Sell = in.UnitPrice.Decimal
	}
	return p, nil
}

// Derive computes revenue, cost and profit for a quantity in grams priced
// per kilogram.
func Derive(quantity decimal.Decimal, p Prices) Totals {
	revenue := quantity.Mul(p.Sell).Shift(-3)
	cost := quantity.Mul(p.Buy).Shift(-3)
	return Totals{
		Prices:  p,
		Revenue: revenue,
		Cost:    cost,
		Profit:  revenue.Sub(cost),
	}
}

// LegacyAmounts is the amount shape of rows written before buy and sell
// prices existed. Any field may be absent.
type LegacyAmounts struct {
	UnitPrice    decimal.NullDecimal
	TotalPrice   decimal.NullDecimal
	BuyPrice     decimal.NullDecimal
	SellPrice    decimal.NullDecimal
	TotalRevenue decimal.NullDecimal
	TotalCost    decimal.NullDecimal
	TotalProfit  decimal.NullDecimal
}

// Canonical maps stored amounts onto the buy/sell schema. Sell falls back to
// the unit price, buy to 0, and revenue to the stored total price. Missing
// cost and profit are derived.
func (a LegacyAmounts) Canonical(quantity decimal.Decimal) Totals {
	p, _ := ResolvePrices(PriceInput{UnitPrice: a.UnitPrice, BuyPrice: a.BuyPrice, SellPrice: a.SellPrice})
	derived := Derive(quantity, p)

	t := Totals{Prices: p}
	switch {
	case a.TotalRevenue.Valid:
		t.Revenue = a.TotalRevenue.Decimal
	case a.TotalPrice.Valid:
		t.Revenue = a.TotalPrice.Decimal
	default:
		t.Revenue = derived.Revenue
	}
	if a.TotalCost.Valid {
		t.Cost = a.TotalCost.Decimal
	} else {
		t.Cost = derived.Cost
	}
	if a.TotalProfit.Valid {
		t.Profit = a.TotalProfit.Decimal
	} else {
		t.Profit = t.Revenue.Sub(t.Cost)
	}
	return t
}
