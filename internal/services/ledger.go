// Package services holds the ledger and the aggregator built on the store
// ports.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/log"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

// Notifier receives record change events. Delivery failures never fail the
// ledger operation that caused them.
type Notifier interface {
	RecordChanged(ctx context.Context, e core.RecordEvent) error
}

// Ledger owns users, stock records and price references.
type Ledger struct {
	store    store.Store
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
}

// New builds a ledger. notifier may be nil.
func New(s store.Store, notifier Notifier, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	return &Ledger{
		store:    s,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

func (l *Ledger) CreateUser(ctx context.Context, aliasName string) (core.User, error) {
	alias := strings.TrimSpace(aliasName)
	if alias == "" {
		return core.User{}, &core.FieldError{Field: "aliasName", Err: core.ErrMissingField}
	}
	u := core.User{ID: l.newID(), AliasName: alias, CreatedAt: l.now()}
	if err := l.store.CreateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	l.logger.InfoContext(ctx, "User created", log.FieldUserID, u.ID)
	return u, nil
}

func (l *Ledger) GetUser(ctx context.Context, id string) (core.User, bool, error) {
	return l.store.GetUser(ctx, id)
}

func (l *Ledger) ListUsers(ctx context.Context) ([]core.User, error) {
	return l.store.ListUsers(ctx)
}

// DeleteUser removes the user. Its records are kept.
func (l *Ledger) DeleteUser(ctx context.Context, id string) (bool, error) {
	ok, err := l.store.DeleteUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if ok {
		l.logger.InfoContext(ctx, "User deleted", log.FieldUserID, id)
	}
	return ok, nil
}

// CreateRecord validates the submission, derives the totals and stores the
// new record. Nothing is written when validation fails.
func (l *Ledger) CreateRecord(ctx context.Context, in core.NewRecord) (core.StockRecord, error) {
	if err := in.Validate(); err != nil {
		return core.StockRecord{}, err
	}
	userID := strings.TrimSpace(in.UserID)
	if _, found, err := l.store.GetUser(ctx, userID); err != nil {
		return core.StockRecord{}, fmt.Errorf("lookup user: %w", err)
	} else if !found {
		return core.StockRecord{}, core.ErrUserNotFound
	}

	prices, err := core.ResolvePrices(core.PriceInput{
		UnitPrice: in.UnitPrice,
		BuyPrice:  in.BuyPrice,
		SellPrice: in.SellPrice,
	})
	if err != nil {
		return core.StockRecord{}, err
	}

	r := core.StockRecord{
		ID:          l.newID(),
		UserID:      userID,
		Type:        core.ItemType(strings.TrimSpace(in.Type)),
		Species:     strings.TrimSpace(in.Species),
		Quantity:    in.Quantity.Decimal,
		Location:    strings.TrimSpace(in.Location),
		CollectedAt: l.now(),
		Notes:       strings.TrimSpace(in.Notes),
	}
	r.SetAmounts(core.Derive(r.Quantity, prices))

	if err := l.store.InsertRecord(ctx, r); err != nil {
		return core.StockRecord{}, fmt.Errorf("insert record: %w", err)
	}
	l.logger.InfoContext(ctx, "Record created", log.NewFields().
		WithRecord(r.ID, r.UserID, r.Type.String(), r.Species, r.Quantity).
		WithOperation(log.OpCreate).ToSlice()...)
	l.notify(ctx, core.EventRecordCreated, r)
	return r, nil
}

// UpdateRecord applies the patch atomically. found is false when no record
// has the id.
func (l *Ledger) UpdateRecord(ctx context.Context, id string, patch core.RecordPatch) (core.StockRecord, bool, error) {
	if err := patch.Validate(); err != nil {
		return core.StockRecord{}, false, err
	}
	r, found, err := l.store.UpdateRecord(ctx, id, func(cur *core.StockRecord) error {
		patch.Apply(cur)
		return nil
	})
	if err != nil {
		return core.StockRecord{}, found, fmt.Errorf("update record: %w", err)
	}
	if !found {
		return core.StockRecord{}, false, nil
	}
	l.logger.InfoContext(ctx, "Record updated",
		log.FieldRecordID, r.ID,
		"recalculated", patch.Touches())
	l.notify(ctx, core.EventRecordUpdated, r)
	return r, true, nil
}

func (l *Ledger) DeleteRecord(ctx context.Context, id string) (bool, error) {
	r, found, err := l.store.DeleteRecord(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	if found {
		l.logger.InfoContext(ctx, "Record deleted", log.FieldRecordID, id)
		l.notify(ctx, core.EventRecordDeleted, r)
	}
	return found, nil
}

func (l *Ledger) GetRecord(ctx context.Context, id string) (core.StockRecord, bool, error) {
	return l.store.GetRecord(ctx, id)
}

// ListRecords returns records in insertion order. The year filter only
// applies together with a user.
func (l *Ledger) ListRecords(ctx context.Context, f store.RecordFilter) ([]core.StockRecord, error) {
	if f.Year != 0 && (f.Year < core.MinYear || f.Year > core.MaxYear) {
		return nil, &core.FieldError{Field: "year", Err: core.ErrInvalidYear}
	}
	return l.store.ListRecords(ctx, f)
}

// UpsertPrice writes the reference price for (type, species, year). An
// existing entry keeps its id.
func (l *Ledger) UpsertPrice(ctx context.Context, in core.NewPrice) (core.PriceReference, error) {
	if err := in.Validate(); err != nil {
		return core.PriceReference{}, err
	}
	p, err := l.store.UpsertPrice(ctx, core.PriceReference{
		ID:        l.newID(),
		Type:      core.ItemType(strings.TrimSpace(in.Type)),
		Species:   strings.TrimSpace(in.Species),
		Year:      in.Year,
		BuyPrice:  in.BuyPrice,
		SellPrice: in.SellPrice,
		UpdatedAt: l.now(),
	})
	if err != nil {
		return core.PriceReference{}, fmt.Errorf("upsert price: %w", err)
	}
	l.logger.InfoContext(ctx, "Price reference saved",
		log.FieldPriceID, p.ID,
		log.FieldItemType, p.Type,
		log.FieldSpecies, p.Species,
		log.FieldYear, p.Year)
	return p, nil
}

// CurrentPrice returns this year's reference for the species, else the most
// recent one.
func (l *Ledger) CurrentPrice(ctx context.Context, typ core.ItemType, species string) (core.PriceReference, bool, error) {
	if !typ.IsValid() {
		return core.PriceReference{}, false, &core.FieldError{Field: "type", Err: core.ErrInvalidType}
	}
	species = strings.TrimSpace(species)
	if species == "" {
		return core.PriceReference{}, false, &core.FieldError{Field: "species", Err: core.ErrMissingField}
	}
	prices, err := l.store.ListPrices(ctx, store.PriceFilter{Type: typ, Species: species})
	if err != nil {
		return core.PriceReference{}, false, fmt.Errorf("list prices: %w", err)
	}
	p, ok := core.CurrentPrice(prices, l.now().Year())
	return p, ok, nil
}

func (l *Ledger) ListPrices(ctx context.Context, f store.PriceFilter) ([]core.PriceReference, error) {
	return l.store.ListPrices(ctx, f)
}

func (l *Ledger) DeletePrice(ctx context.Context, id string) (bool, error) {
	ok, err := l.store.DeletePrice(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete price: %w", err)
	}
	return ok, nil
}

func (l *Ledger) notify(ctx context.Context, kind core.EventKind, r core.StockRecord) {
	if l.notifier == nil {
		return
	}
	e := core.RecordEvent{Kind: kind, RecordID: r.ID, UserID: r.UserID, Timestamp: l.now()}
	if err := l.notifier.RecordChanged(ctx, e); err != nil {
		// The record is stored; a lost event only delays the export.
		l.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldEvent, string(kind),
			log.FieldRecordID, r.ID,
			log.FieldError, err)
	}
}
