package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Kristiina602/collecting-stock/internal/core"
)

func TestAggregatorYearlyProfit(t *testing.T) {
	ctx := context.Background()
	l, s, _, c := newTestLedger(t)
	a := NewAggregator(s)
	u := mustUser(t, l, "fox")

	add := func(year int, typ, qty, buy, sell string) {
		t.Helper()
		c.t = time.Date(year, 8, 1, 0, 0, 0, 0, time.UTC)
		_, err := l.CreateRecord(ctx, core.NewRecord{UserID: u.ID, Type: typ, Species: "s", Quantity: nd(qty), Location: "l", BuyPrice: nd(buy), SellPrice: nd(sell)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	add(2024, "berry", "1000", "1", "5")
	add(2024, "mushroom", "500", "2", "20")
	add(2022, "berry", "2000", "0", "3")

	got, err := a.YearlyProfit(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("yearly profit: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected buckets for 2 years, got %v", got)
	}
	if s := got[2024]; !s.Revenue.Equal(dec("15")) || !s.Cost.Equal(dec("2")) || !s.Profit.Equal(dec("13")) || s.ItemCount != 2 {
		t.Fatalf("2024: %+v", s)
	}
	if _, ok := got[2023]; ok {
		t.Fatalf("no bucket expected for 2023")
	}
	mush, _ := a.YearlyProfit(ctx, u.ID, core.Mushroom)
	if len(mush) != 1 || mush[2024].ItemCount != 1 {
		t.Fatalf("mushrooms: %+v", mush)
	}
	if _, err := a.YearlyProfit(ctx, "ghost", ""); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	years, _ := a.AllYears(ctx)
	if !slices.Equal(years, []int{2024, 2022}) {
		t.Fatalf("years: %v", years)
	}
	rev, _ := a.UserRevenue(ctx, u.ID)
	if !rev.Revenue.Equal(dec("21")) || rev.ItemCount != 3 {
		t.Fatalf("revenue: %+v", rev)
	}
}

func TestAllUsersSalesTotalsMatchPerUserProfit(t *testing.T) {
	ctx := context.Background()
	l, s, _, c := newTestLedger(t)
	a := NewAggregator(s)
	users := []core.User{mustUser(t, l, "fox"), mustUser(t, l, "owl"), mustUser(t, l, "idle")}

	for i, year := range []int{2023, 2024, 2024, 2025} {
		c.t = time.Date(year, 5, 5, 0, 0, 0, 0, time.UTC)
		typ := "berry"
		if i%2 == 1 {
			typ = "mushroom"
		}
		_, err := l.CreateRecord(ctx, core.NewRecord{UserID: users[i%2].ID, Type: typ, Species: "s", Quantity: nd("750"), Location: "l", BuyPrice: nd("1.2"), SellPrice: nd("7.9")})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	for _, typ := range []core.ItemType{"", core.Berry, core.Mushroom} {
		report, err := a.AllUsersSalesByYear(ctx, typ)
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		if len(report.Users) != 3 || report.Users[0].User.ID != users[0].ID || report.Users[2].User.ID != users[2].ID {
			t.Fatalf("users out of creation order: %+v", report.Users)
		}
		if len(report.Users[2].SalesByYear) != 0 {
			t.Fatalf("idle user should have no buckets")
		}

		want := map[int]core.YearSummary{}
		for _, u := range users {
			per, err := a.YearlyProfit(ctx, u.ID, typ)
			if err != nil {
				t.Fatalf("yearly profit: %v", err)
			}
			core.MergeTotals(want, per)
		}
		if len(want) != len(report.TotalsByYear) {
			t.Fatalf("type %q: bucket count %d vs %d", typ, len(report.TotalsByYear), len(want))
		}
		for y, w := range want {
			g := report.TotalsByYear[y]
			if !g.Revenue.Equal(w.Revenue) || !g.Cost.Equal(w.Cost) || !g.Profit.Equal(w.Profit) || g.ItemCount != w.ItemCount {
				t.Fatalf("type %q year %d: got %+v want %+v", typ, y, g, w)
			}
		}
	}
}

func TestPriceAnalysisAndYears(t *testing.T) {
	ctx := context.Background()
	l, s, _, _ := newTestLedger(t)
	a := NewAggregator(s)

	for _, p := range []core.NewPrice{
		{Type: "berry", Species: "Bilberry", Year: 2024, BuyPrice: dec("2"), SellPrice: dec("6")},
		{Type: "berry", Species: "Cloudberry", Year: 2024, BuyPrice: dec("10"), SellPrice: dec("18")},
		{Type: "mushroom", Species: "Porcini", Year: 2021, BuyPrice: dec("9"), SellPrice: dec("25")},
	} {
		if _, err := l.UpsertPrice(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	got, _ := a.PriceProfitAnalysis(ctx, core.Berry)
	if s := got[2024]; !s.Revenue.Equal(dec("24")) || !s.Cost.Equal(dec("12")) || !s.Profit.Equal(dec("12")) || s.ItemCount != 2 {
		t.Fatalf("berry analysis: %+v", got)
	}
	if _, ok := got[2021]; ok {
		t.Fatalf("type filter leaked a mushroom year")
	}
	years, _ := a.PriceYears(ctx)
	if !slices.Equal(years, []int{2024, 2021}) {
		t.Fatalf("price years: %v", years)
	}
}
