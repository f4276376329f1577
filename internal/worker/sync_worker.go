package worker

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kristiina602/collecting-stock/internal/amqp"
	"github.com/Kristiina602/collecting-stock/internal/log"
	"github.com/Kristiina602/collecting-stock/internal/services"
	"github.com/Kristiina602/collecting-stock/internal/sheets"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

// SyncWorker mirrors the ledger into Google Sheets.
type SyncWorker struct {
	records    store.RecordStore
	aggregator *services.Aggregator
	writer     sheets.RecordsWriter
	summary    sheets.SummaryWriter
	logger     *log.Logger
}

func NewSyncWorker(records store.RecordStore, aggregator *services.Aggregator, writer sheets.RecordsWriter, summary sheets.SummaryWriter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		records:    records,
		aggregator: aggregator,
		writer:     writer,
		summary:    summary,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordEvent rewrites the records sheet from the current store
// state. Every event kind is handled the same way, so redelivered or
// reordered events converge on the same sheet.
func (w *SyncWorker) HandleRecordEvent(ctx context.Context, msg *amqp.RecordEventMessage) error {
	w.logger.InfoContext(ctx, "Processing record event",
		log.FieldEvent, msg.Event,
		log.FieldRecordID, msg.RecordID,
		log.FieldUserID, msg.UserID)

	if err := w.syncRecords(ctx); err != nil {
		return fmt.Errorf("sync records for %s %s: %w", msg.Event, msg.RecordID, err)
	}
	return nil
}

// StartupSync rewrites the records sheet once, covering events missed
// while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	if err := w.syncRecords(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncRecords(ctx context.Context) error {
	records, err := w.records.ListRecords(ctx, store.RecordFilter{})
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if err := w.writer.ReplaceRecords(ctx, records); err != nil {
		return fmt.Errorf("write records sheet: %w", err)
	}
	w.logger.InfoContext(ctx, "Records sheet synced", log.FieldCount, len(records))
	return nil
}

// ExportSummary writes the all-users yearly sales summary.
func (w *SyncWorker) ExportSummary(ctx context.Context) error {
	report, err := w.aggregator.AllUsersSalesByYear(ctx, "")
	if err != nil {
		return fmt.Errorf("build sales report: %w", err)
	}
	rows := salesRows(report)
	if err := w.summary.WriteSalesSummary(ctx, rows); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	w.logger.InfoContext(ctx, "Sales summary exported",
		log.FieldCount, len(rows),
		"users", len(report.Users))
	return nil
}

// salesRows flattens a report into one row per user and year, users in
// report order and years ascending, followed by the per-year totals.
func salesRows(report services.SalesReport) []sheets.SalesRow {
	var rows []sheets.SalesRow
	for _, u := range report.Users {
		for _, y := range sortedYears(u.SalesByYear) {
			rows = append(rows, sheets.SalesRow{Alias: u.User.AliasName, Year: y, YearSummary: u.SalesByYear[y]})
		}
	}
	for _, y := range sortedYears(report.TotalsByYear) {
		rows = append(rows, sheets.SalesRow{Alias: sheets.TotalAlias, Year: y, YearSummary: report.TotalsByYear[y]})
	}
	return rows
}

func sortedYears[V any](m map[int]V) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
