package core

import (
	"slices"
	"testing"
	"time"
)

func rec(typ ItemType, year int, qty, buy, sell string) StockRecord {
	r := StockRecord{Type: typ, Quantity: d(qty), CollectedAt: time.Date(year, 6, 1, 12, 0, 0, 0, time.UTC)}
	r.SetAmounts(Derive(r.Quantity, Prices{Buy: d(buy), Sell: d(sell)}))
	return r
}

func TestSummarizeByYear(t *testing.T) {
	records := []StockRecord{
		rec(Berry, 2024, "1000", "1", "5"),
		rec(Mushroom, 2024, "500", "0", "20"),
		rec(Berry, 2023, "2000", "0", "4"),
	}

	all := SummarizeByYear(records, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 years, got %d", len(all))
	}
	y24 := all[2024]
	if !y24.Revenue.Equal(d("15")) || !y24.Cost.Equal(d("1")) || !y24.Profit.Equal(d("14")) || y24.ItemCount != 2 {
		t.Fatalf("2024: %+v", y24)
	}

	berries := SummarizeByYear(records, Berry)
	if berries[2024].ItemCount != 1 || !berries[2023].Revenue.Equal(d("8")) {
		t.Fatalf("berries: %+v", berries)
	}
	mushrooms := SummarizeByYear(records, Mushroom)
	if _, ok := mushrooms[2023]; ok {
		t.Fatalf("no bucket expected for a year without records")
	}

	if got := SummarizeByYear(nil, ""); len(got) != 0 {
		t.Fatalf("expected empty summary, got %v", got)
	}
}

func TestSummarizePricesIsUnweighted(t *testing.T) {
	prices := []PriceReference{
		{Type: Berry, Year: 2024, BuyPrice: d("2"), SellPrice: d("6")},
		{Type: Mushroom, Year: 2024, BuyPrice: d("10"), SellPrice: d("25")},
		{Type: Berry, Year: 2022, BuyPrice: d("1"), SellPrice: d("4")},
	}
	got := SummarizePrices(prices, "")
	s := got[2024]
	if !s.Revenue.Equal(d("31")) || !s.Cost.Equal(d("12")) || !s.Profit.Equal(d("19")) || s.ItemCount != 2 {
		t.Fatalf("2024: %+v", s)
	}
	if berries := SummarizePrices(prices, Berry); berries[2024].ItemCount != 1 {
		t.Fatalf("berries: %+v", berries)
	}
	if years := PriceYears(prices); !slices.Equal(years, []int{2024, 2022}) {
		t.Fatalf("years: %v", years)
	}
}

func TestMergeTotals(t *testing.T) {
	dst := map[int]YearSummary{2024: {Revenue: d("1"), ItemCount: 1}}
	MergeTotals(dst, map[int]YearSummary{
		2024: {Revenue: d("2"), ItemCount: 2},
		2023: {Revenue: d("5"), ItemCount: 1},
	})
	if !dst[2024].Revenue.Equal(d("3")) || dst[2024].ItemCount != 3 || dst[2023].ItemCount != 1 {
		t.Fatalf("merged: %+v", dst)
	}
}

func TestRecordYears(t *testing.T) {
	records := []StockRecord{
		rec(Berry, 2022, "1", "0", "1"),
		rec(Berry, 2025, "1", "0", "1"),
		rec(Berry, 2022, "1", "0", "1"),
		rec(Berry, 2024, "1", "0", "1"),
	}
	if got := RecordYears(records); !slices.Equal(got, []int{2025, 2024, 2022}) {
		t.Fatalf("years: %v", got)
	}
	if got := RecordYears(nil); len(got) != 0 {
		t.Fatalf("expected no years, got %v", got)
	}
}

func TestCurrentPrice(t *testing.T) {
	prices := []PriceReference{
		{ID: "a", Year: 2022},
		{ID: "b", Year: 2024},
		{ID: "c", Year: 2023},
	}
	if p, ok := CurrentPrice(prices, 2023); !ok || p.ID != "c" {
		t.Fatalf("current year entry expected, got %+v %v", p, ok)
	}
	if p, ok := CurrentPrice(prices, 2026); !ok || p.ID != "b" {
		t.Fatalf("latest year expected, got %+v %v", p, ok)
	}
	if _, ok := CurrentPrice(nil, 2026); ok {
		t.Fatalf("expected absent")
	}
}
