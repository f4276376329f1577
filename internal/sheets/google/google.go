package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Kristiina602/collecting-stock/internal/core"
	ports "github.com/Kristiina602/collecting-stock/internal/sheets"
)

// Options configures the spreadsheet a Client writes to.
type Options struct {
	SpreadsheetID   string
	RecordsSheet    string
	SummarySheet    string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsSheet  string
	summarySheet  string
}

// Ensure interface conformance
var (
	_ ports.RecordsWriter = (*Client)(nil)
	_ ports.SummaryWriter = (*Client)(nil)
)

var (
	recordsHeader = []any{"ID", "User ID", "Type", "Species", "Quantity (g)", "Location", "Collected At",
		"Buy Price (€/kg)", "Sell Price (€/kg)", "Revenue", "Cost", "Profit", "Notes"}
	summaryHeader = []any{"User", "Year", "Items", "Revenue", "Cost", "Profit"}
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWithService(svc, opts)
}

func newWithService(svc *gsheet.Service, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		recordsSheet:  opts.RecordsSheet,
		summarySheet:  opts.SummarySheet,
	}
	if c.recordsSheet == "" {
		c.recordsSheet = "Records"
	}
	if c.summarySheet == "" {
		c.summarySheet = "Summary"
	}
	return c, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// ReplaceRecords clears the records sheet and writes a header plus one row
// per record.
func (c *Client) ReplaceRecords(ctx context.Context, records []core.StockRecord) error {
	if err := c.replace(ctx, c.recordsSheet, recordRows(records)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Records sheet rewritten", "sheet", c.recordsSheet, "count", len(records))
	return nil
}

// WriteSalesSummary clears the summary sheet and writes the given rows.
func (c *Client) WriteSalesSummary(ctx context.Context, rows []ports.SalesRow) error {
	if err := c.replace(ctx, c.summarySheet, summaryRows(rows)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Summary sheet rewritten", "sheet", c.summarySheet, "rows", len(rows))
	return nil
}

func (c *Client) replace(ctx context.Context, sheet string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:%s", sheet, columnName(len(values[0])))
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", sheet, err)
	}
	return nil
}

func recordRows(records []core.StockRecord) [][]any {
	out := make([][]any, 0, len(records)+1)
	out = append(out, recordsHeader)
	for _, r := range records {
		out = append(out, []any{
			r.ID,
			r.UserID,
			r.Type.String(),
			r.Species,
			r.Quantity.String(),
			r.Location,
			r.CollectedAt.UTC().Format(time.RFC3339),
			core.FormatEuros(r.BuyPrice),
			core.FormatEuros(r.SellPrice),
			core.FormatEuros(r.TotalRevenue),
			core.FormatEuros(r.TotalCost),
			core.FormatEuros(r.TotalProfit),
			r.Notes,
		})
	}
	return out
}

func summaryRows(rows []ports.SalesRow) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, summaryHeader)
	for _, r := range rows {
		out = append(out, []any{
			r.Alias,
			r.Year,
			r.ItemCount,
			core.FormatEuros(r.Revenue),
			core.FormatEuros(r.Cost),
			core.FormatEuros(r.Profit),
		})
	}
	return out
}

// columnName returns the A1 letter of the n-th column, 1-based.
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
