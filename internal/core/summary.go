package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// YearSummary aggregates amounts of one calendar year.
type YearSummary struct {
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	Profit    decimal.Decimal
	ItemCount int
}

// Add returns the sum of two summaries.
func (s YearSummary) Add(o YearSummary) YearSummary {
	return YearSummary{
		Revenue:   s.Revenue.Add(o.Revenue),
		Cost:      s.Cost.Add(o.Cost),
		Profit:    s.Profit.Add(o.Profit),
		ItemCount: s.ItemCount + o.ItemCount,
	}
}

// SummarizeByYear buckets records by collection year. An empty typ keeps
// every record. Years without records get no bucket.
func SummarizeByYear(records []StockRecord, typ ItemType) map[int]YearSummary {
	out := make(map[int]YearSummary)
	for _, r := range records {
		if typ != "" && r.Type != typ {
			continue
		}
		y := r.Year()
		out[y] = out[y].Add(YearSummary{
			Revenue:   r.TotalRevenue,
			Cost:      r.TotalCost,
			Profit:    r.TotalProfit,
			ItemCount: 1,
		})
	}
	return out
}

// SummarizePrices buckets price references by year, summing per-kilogram
// prices without weighting.
func SummarizePrices(prices []PriceReference, typ ItemType) map[int]YearSummary {
	out := make(map[int]YearSummary)
	for _, p := range prices {
		if typ != "" && p.Type != typ {
			continue
		}
		out[p.Year] = out[p.Year].Add(YearSummary{
			Revenue:   p.SellPrice,
			Cost:      p.BuyPrice,
			Profit:    p.SellPrice.Sub(p.BuyPrice),
			ItemCount: 1,
		})
	}
	return out
}

// MergeTotals adds every bucket of src into dst.
func MergeTotals(dst, src map[int]YearSummary) {
	for y, s := range src {
		dst[y] = dst[y].Add(s)
	}
}

// RecordYears returns the distinct collection years, most recent first.
func RecordYears(records []StockRecord) []int {
	seen := make(map[int]struct{})
	for _, r := range records {
		seen[r.Year()] = struct{}{}
	}
	return sortedYearsDesc(seen)
}

// PriceYears returns the distinct price reference years, most recent first.
func PriceYears(prices []PriceReference) []int {
	seen := make(map[int]struct{})
	for _, p := range prices {
		seen[p.Year] = struct{}{}
	}
	return sortedYearsDesc(seen)
}

func sortedYearsDesc(seen map[int]struct{}) []int {
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

// CurrentPrice picks the entry for year when present, else the one with the
// highest year. All prices are expected to share type and species.
func CurrentPrice(prices []PriceReference, year int) (PriceReference, bool) {
	var best PriceReference
	found := false
	for _, p := range prices {
		if p.Year == year {
			return p, true
		}
		if !found || p.Year > best.Year {
			best = p
			found = true
		}
	}
	return best, found
}
