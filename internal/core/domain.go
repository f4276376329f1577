package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Berry    ItemType = "berry"
	Mushroom ItemType = "mushroom"
)

type (
	// ItemType is the kind of collected item.
	ItemType string

	User struct {
		ID        string
		AliasName string
		CreatedAt time.Time
	}

	// StockRecord is one collected batch. Quantity is in grams, prices in
	// euro per kilogram. The totals are derived from quantity and prices and
	// are only written through Derive.
	StockRecord struct {
		ID          string
		UserID      string
		Type        ItemType
		Species     string
		Quantity    decimal.Decimal
		Location    string
		CollectedAt time.Time
		Notes       string

		BuyPrice  decimal.Decimal
		SellPrice decimal.Decimal

		TotalRevenue decimal.Decimal
		TotalCost    decimal.Decimal
		TotalProfit  decimal.Decimal
	}

	// PriceReference is the reference price of a species for one year.
	PriceReference struct {
		ID        string
		Type      ItemType
		Species   string
		Year      int
		BuyPrice  decimal.Decimal
		SellPrice decimal.Decimal
		UpdatedAt time.Time
	}

	// NewRecord carries the raw inputs of a record submission. Zero values
	// mean the field was not provided.
	NewRecord struct {
		UserID    string
		Type      string
		Species   string
		Quantity  decimal.NullDecimal
		Location  string
		Notes     string
		UnitPrice decimal.NullDecimal
		BuyPrice  decimal.NullDecimal
		SellPrice decimal.NullDecimal
	}

	// RecordPatch holds the mutable fields of a record. Nil or invalid
	// values leave the current value in place.
	RecordPatch struct {
		Type      *string
		Species   *string
		Quantity  decimal.NullDecimal
		Location  *string
		Notes     *string
		UnitPrice decimal.NullDecimal
		BuyPrice  decimal.NullDecimal
		SellPrice decimal.NullDecimal
	}

	// NewPrice carries the inputs of a price reference upsert.
	NewPrice struct {
		Type      string
		Species   string
		Year      int
		BuyPrice  decimal.Decimal
		SellPrice decimal.Decimal
	}
)

func (t ItemType) IsValid() bool {
	return t == Berry || t == Mushroom
}

func (t ItemType) String() string {
	return string(t)
}

// ParseItemType validates an optional type filter. An empty string means no
// filter and returns "".
func ParseItemType(s string) (ItemType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t := ItemType(s)
	if !t.IsValid() {
		return "", &FieldError{Field: "type", Err: ErrInvalidType}
	}
	return t, nil
}

// UnitPrice is the legacy single price, always equal to the sell price.
func (r StockRecord) UnitPrice() decimal.Decimal {
	return r.SellPrice
}

// TotalPrice is the legacy total, always equal to the revenue.
func (r StockRecord) TotalPrice() decimal.Decimal {
	return r.TotalRevenue
}

// Year is the calendar year of collection in UTC.
func (r StockRecord) Year() int {
	return r.CollectedAt.UTC().Year()
}

// Touches reports whether the patch changes an input of the derived totals.
func (p RecordPatch) Touches() bool {
	return p.Quantity.Valid || p.UnitPrice.Valid || p.BuyPrice.Valid || p.SellPrice.Valid
}

// Validate checks the user submission in a fixed order and reports the first
// problem found.
func (n NewRecord) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return missing("userId")
	}
	if strings.TrimSpace(n.Type) == "" {
		return missing("type")
	}
	if strings.TrimSpace(n.Species) == "" {
		return missing("species")
	}
	if !n.Quantity.Valid {
		return missing("quantity")
	}
	if strings.TrimSpace(n.Location) == "" {
		return missing("location")
	}
	if !n.UnitPrice.Valid && !n.SellPrice.Valid {
		return missing("sellPrice")
	}
	if !ItemType(strings.TrimSpace(n.Type)).IsValid() {
		return &FieldError{Field: "type", Err: ErrInvalidType}
	}
	if !n.Quantity.Decimal.IsPositive() {
		return &FieldError{Field: "quantity", Err: ErrInvalidQuantity}
	}
	return PriceInput{UnitPrice: n.UnitPrice, BuyPrice: n.BuyPrice, SellPrice: n.SellPrice}.Validate()
}

// Validate checks every provided patch value.
func (p RecordPatch) Validate() error {
	if p.Type != nil && !ItemType(strings.TrimSpace(*p.Type)).IsValid() {
		return &FieldError{Field: "type", Err: ErrInvalidType}
	}
	if p.Species != nil && strings.TrimSpace(*p.Species) == "" {
		return missing("species")
	}
	if p.Location != nil && strings.TrimSpace(*p.Location) == "" {
		return missing("location")
	}
	if p.Quantity.Valid && !p.Quantity.Decimal.IsPositive() {
		return &FieldError{Field: "quantity", Err: ErrInvalidQuantity}
	}
	return PriceInput{UnitPrice: p.UnitPrice, BuyPrice: p.BuyPrice, SellPrice: p.SellPrice}.Validate()
}

// Apply merges the patch into r. When the patch touches quantity or a price
// the prices are re-resolved against the current ones and the totals are
// recomputed. The patch must have been validated.
func (p RecordPatch) Apply(r *StockRecord) {
	if p.Type != nil {
		r.Type = ItemType(strings.TrimSpace(*p.Type))
	}
	if p.Species != nil {
		r.Species = strings.TrimSpace(*p.Species)
	}
	if p.Location != nil {
		r.Location = strings.TrimSpace(*p.Location)
	}
	if p.Notes != nil {
		r.Notes = strings.TrimSpace(*p.Notes)
	}
	if !p.Touches() {
		return
	}
	if p.Quantity.Valid {
		r.Quantity = p.Quantity.Decimal
	}
	prices := Prices{Buy: r.BuyPrice, Sell: r.SellPrice}
	if p.BuyPrice.Valid {
		prices.Buy = p.BuyPrice.Decimal
	}
	switch {
	case p.SellPrice.Valid:
		prices.Sell = p.SellPrice.Decimal
	case p.UnitPrice.Valid:
		prices.Sell = p.UnitPrice.Decimal
	}
	r.SetAmounts(Derive(r.Quantity, prices))
}

// SetAmounts stores prices and totals together.
func (r *StockRecord) SetAmounts(t Totals) {
	r.BuyPrice = t.Prices.Buy
	r.SellPrice = t.Prices.Sell
	r.TotalRevenue = t.Revenue
	r.TotalCost = t.Cost
	r.TotalProfit = t.Profit
}

// Validate checks a price reference upsert.
func (n NewPrice) Validate() error {
	if !ItemType(strings.TrimSpace(n.Type)).IsValid() {
		return &FieldError{Field: "type", Err: ErrInvalidType}
	}
	if strings.TrimSpace(n.Species) == "" {
		return missing("species")
	}
	if n.Year < MinYear || n.Year > MaxYear {
		return &FieldError{Field: "year", Err: ErrInvalidYear}
	}
	if n.BuyPrice.IsNegative() {
		return &FieldError{Field: "buyPrice", Err: ErrInvalidPrice}
	}
	if n.SellPrice.IsNegative() {
		return &FieldError{Field: "sellPrice", Err: ErrInvalidPrice}
	}
	return nil
}

const (
	MinYear = 1900
	MaxYear = 9999
)
