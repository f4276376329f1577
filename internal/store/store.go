// Package store declares the persistence ports of the ledger.
package store

import (
	"context"

	"github.com/Kristiina602/collecting-stock/internal/core"
)

type (
	// RecordFilter narrows ListRecords. Year is only applied together with
	// UserID; zero values mean no filter.
	RecordFilter struct {
		UserID string
		Year   int
	}

	// PriceFilter narrows ListPrices; zero values mean no filter.
	PriceFilter struct {
		Type    core.ItemType
		Species string
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id string) (core.User, bool, error)
		// ListUsers returns users in creation order.
		ListUsers(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id string) (bool, error)
	}

	RecordStore interface {
		InsertRecord(ctx context.Context, r core.StockRecord) error
		GetRecord(ctx context.Context, id string) (core.StockRecord, bool, error)
		// UpdateRecord runs fn on the current record and stores the result
		// atomically. An error from fn aborts the update.
		UpdateRecord(ctx context.Context, id string, fn func(*core.StockRecord) error) (core.StockRecord, bool, error)
		DeleteRecord(ctx context.Context, id string) (core.StockRecord, bool, error)
		// ListRecords returns matching records in insertion order.
		ListRecords(ctx context.Context, f RecordFilter) ([]core.StockRecord, error)
	}

	PriceStore interface {
		// UpsertPrice writes p under its (type, species, year) key. An existing
		// entry keeps its ID; the stored reference is returned.
		UpsertPrice(ctx context.Context, p core.PriceReference) (core.PriceReference, error)
		ListPrices(ctx context.Context, f PriceFilter) ([]core.PriceReference, error)
		DeletePrice(ctx context.Context, id string) (bool, error)
	}

	Store interface {
		UserStore
		RecordStore
		PriceStore
	}
)

// Match reports whether r passes the filter.
func (f RecordFilter) Match(r core.StockRecord) bool {
	if f.UserID == "" {
		return true
	}
	if r.UserID != f.UserID {
		return false
	}
	return f.Year == 0 || r.Year() == f.Year
}

// Match reports whether p passes the filter.
func (f PriceFilter) Match(p core.PriceReference) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	return f.Species == "" || p.Species == f.Species
}
