package sheets

import (
	"context"

	"github.com/Kristiina602/collecting-stock/internal/core"
)

// TotalAlias labels the across-users rows of a sales summary.
const TotalAlias = "TOTAL"

// SalesRow is one line of the summary sheet: a user's amounts for a year.
// Rows with Alias TotalAlias carry the totals across users.
type SalesRow struct {
	Alias string
	Year  int
	core.YearSummary
}

// Ports for outbound adapters.
type (
	// RecordsWriter mirrors the ledger into an external sheet.
	RecordsWriter interface {
		// ReplaceRecords overwrites the sheet with exactly these records.
		ReplaceRecords(ctx context.Context, records []core.StockRecord) error
	}

	// SummaryWriter publishes the yearly sales summary.
	SummaryWriter interface {
		WriteSalesSummary(ctx context.Context, rows []SalesRow) error
	}
)
