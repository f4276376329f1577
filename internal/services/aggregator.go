package services

import (
	"context"
	"fmt"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

type (
	// UserSales is one user's yearly sales.
	UserSales struct {
		User        core.User
		SalesByYear map[int]core.YearSummary
	}

	// SalesReport covers every user plus the per-year totals across them.
	SalesReport struct {
		Users        []UserSales
		TotalsByYear map[int]core.YearSummary
	}
)

// Aggregator computes summaries on read; nothing it returns is cached.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// YearlyProfit buckets a user's records by year. It returns
// core.ErrUserNotFound for an unknown user.
func (a *Aggregator) YearlyProfit(ctx context.Context, userID string, typ core.ItemType) (map[int]core.YearSummary, error) {
	if _, found, err := a.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	} else if !found {
		return nil, core.ErrUserNotFound
	}
	records, err := a.store.ListRecords(ctx, store.RecordFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return core.SummarizeByYear(records, typ), nil
}

// UserRevenue sums the revenue of every record of the user.
func (a *Aggregator) UserRevenue(ctx context.Context, userID string) (core.YearSummary, error) {
	records, err := a.store.ListRecords(ctx, store.RecordFilter{UserID: userID})
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("list records: %w", err)
	}
	var total core.YearSummary
	for _, s := range core.SummarizeByYear(records, "") {
		total = total.Add(s)
	}
	return total, nil
}

// AllYears lists the years that have records, most recent first.
func (a *Aggregator) AllYears(ctx context.Context) ([]int, error) {
	records, err := a.store.ListRecords(ctx, store.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return core.RecordYears(records), nil
}

// PriceYears lists the years that have price references, most recent first.
func (a *Aggregator) PriceYears(ctx context.Context) ([]int, error) {
	prices, err := a.store.ListPrices(ctx, store.PriceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return core.PriceYears(prices), nil
}

// PriceProfitAnalysis sums per-kilogram reference prices by year.
func (a *Aggregator) PriceProfitAnalysis(ctx context.Context, typ core.ItemType) (map[int]core.YearSummary, error) {
	prices, err := a.store.ListPrices(ctx, store.PriceFilter{Type: typ})
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return core.SummarizePrices(prices, typ), nil
}

// AllUsersSalesByYear reports every user in creation order. Records of
// deleted users are not part of any bucket.
func (a *Aggregator) AllUsersSalesByYear(ctx context.Context, typ core.ItemType) (SalesReport, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return SalesReport{}, fmt.Errorf("list users: %w", err)
	}
	records, err := a.store.ListRecords(ctx, store.RecordFilter{})
	if err != nil {
		return SalesReport{}, fmt.Errorf("list records: %w", err)
	}

	byUser := make(map[string][]core.StockRecord, len(users))
	for _, r := range records {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	report := SalesReport{
		Users:        make([]UserSales, 0, len(users)),
		TotalsByYear: make(map[int]core.YearSummary),
	}
	for _, u := range users {
		sales := core.SummarizeByYear(byUser[u.ID], typ)
		report.Users = append(report.Users, UserSales{User: u, SalesByYear: sales})
		core.MergeTotals(report.TotalsByYear, sales)
	}
	return report, nil
}
