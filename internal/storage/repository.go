// Package storage is the SQLite implementation of the store ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

// timeLayout is fixed width so stored timestamps sort and slice by year.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the pool opens so it never sees an old schema.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; transactions hold the only connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite store ready", "path", dbPath)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, insertUser, u.ID, u.AliasName, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID)
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, bool, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return u, true, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) InsertRecord(ctx context.Context, rec core.StockRecord) error {
	if _, err := r.db.ExecContext(ctx, insertRecord, recordArgs(rec)...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"user_id", rec.UserID,
		"type", rec.Type,
		"quantity", rec.Quantity.String())
	return nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.StockRecord, bool, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecord, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.StockRecord{}, false, nil
	}
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("get record: %w", err)
	}
	return rec, true, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, id string, fn func(*core.StockRecord) error) (core.StockRecord, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.StockRecord{}, false, nil
	}
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	if err := fn(&rec); err != nil {
		return core.StockRecord{}, true, err
	}

	args := append(recordArgs(rec)[1:], rec.ID)
	if _, err := tx.ExecContext(ctx, updateRecord, args...); err != nil {
		return core.StockRecord{}, true, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.StockRecord{}, true, fmt.Errorf("commit update: %w", err)
	}
	return rec, true, nil
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id string) (core.StockRecord, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.StockRecord{}, false, nil
	}
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("load record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteRecord, id); err != nil {
		return core.StockRecord{}, false, fmt.Errorf("delete record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.StockRecord{}, false, fmt.Errorf("commit delete: %w", err)
	}
	return rec, true, nil
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, f store.RecordFilter) ([]core.StockRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case f.UserID != "" && f.Year != 0:
		rows, err = r.db.QueryContext(ctx, listRecordsByUserYear, f.UserID, fmt.Sprintf("%04d", f.Year))
	case f.UserID != "":
		rows, err = r.db.QueryContext(ctx, listRecordsByUser, f.UserID)
	default:
		rows, err = r.db.QueryContext(ctx, listRecords)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []core.StockRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertPrice(ctx context.Context, p core.PriceReference) (core.PriceReference, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.PriceReference{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, selectPriceID, p.Type, p.Species, p.Year).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, insertPrice, p.ID, p.Type, p.Species, p.Year,
			p.BuyPrice.String(), p.SellPrice.String(), formatTime(p.UpdatedAt))
	case err == nil:
		p.ID = existing
		_, err = tx.ExecContext(ctx, updatePrice,
			p.BuyPrice.String(), p.SellPrice.String(), formatTime(p.UpdatedAt), p.ID)
	}
	if err != nil {
		return core.PriceReference{}, fmt.Errorf("upsert price: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.PriceReference{}, fmt.Errorf("commit upsert: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPrices(ctx context.Context, f store.PriceFilter) ([]core.PriceReference, error) {
	rows, err := r.db.QueryContext(ctx, listPrices, f.Type, f.Species)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var out []core.PriceReference
	for rows.Next() {
		var (
			p                    core.PriceReference
			buy, sell, updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.Type, &p.Species, &p.Year, &buy, &sell, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if p.BuyPrice, err = decimal.NewFromString(buy); err != nil {
			return nil, fmt.Errorf("parse buy price: %w", err)
		}
		if p.SellPrice, err = decimal.NewFromString(sell); err != nil {
			return nil, fmt.Errorf("parse sell price: %w", err)
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeletePrice(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deletePrice, id)
	if err != nil {
		return false, fmt.Errorf("delete price: %w", err)
	}
	return affected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	if err := s.Scan(&u.ID, &u.AliasName, &createdAt); err != nil {
		return core.User{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}

// scanRecord reads a row of recordColumns. Amount columns added by the second
// migration may be NULL on older rows; those are normalized to the buy/sell
// schema.
func scanRecord(s scanner) (core.StockRecord, error) {
	var (
		rec                              core.StockRecord
		quantity, collectedAt            string
		unit, total                      sql.NullString
		buy, sell, revenue, cost, profit sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Species, &quantity, &rec.Location,
		&collectedAt, &rec.Notes, &unit, &total, &buy, &sell, &revenue, &cost, &profit)
	if err != nil {
		return core.StockRecord{}, err
	}
	if rec.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return core.StockRecord{}, fmt.Errorf("parse quantity: %w", err)
	}
	if rec.CollectedAt, err = parseTime(collectedAt); err != nil {
		return core.StockRecord{}, err
	}

	var amounts core.LegacyAmounts
	for _, c := range []struct {
		src sql.NullString
		dst *decimal.NullDecimal
	}{
		{unit, &amounts.UnitPrice},
		{total, &amounts.TotalPrice},
		{buy, &amounts.BuyPrice},
		{sell, &amounts.SellPrice},
		{revenue, &amounts.TotalRevenue},
		{cost, &amounts.TotalCost},
		{profit, &amounts.TotalProfit},
	} {
		if *c.dst, err = nullDecimal(c.src); err != nil {
			return core.StockRecord{}, err
		}
	}
	rec.SetAmounts(amounts.Canonical(rec.Quantity))
	return rec, nil
}

// recordArgs follows the column order of insertRecord. Legacy columns are
// kept in sync for older readers.
func recordArgs(rec core.StockRecord) []any {
	return []any{
		rec.ID, rec.UserID, rec.Type, rec.Species, rec.Quantity.String(), rec.Location,
		formatTime(rec.CollectedAt), rec.Notes,
		rec.UnitPrice().String(), rec.TotalPrice().String(),
		rec.BuyPrice.String(), rec.SellPrice.String(),
		rec.TotalRevenue.String(), rec.TotalCost.String(), rec.TotalProfit.String(),
	}
}

func nullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid || s.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse amount %q: %w", s.String, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
