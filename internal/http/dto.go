package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/services"
)

// Boundary shapes. Amounts leave the API as JSON numbers; the legacy
// unitPrice and totalPrice are synthesized here from the canonical record.
type (
	userResponse struct {
		ID        string    `json:"id"`
		AliasName string    `json:"aliasName"`
		CreatedAt time.Time `json:"createdAt"`
		Revenue   float64   `json:"revenue"`
	}

	recordResponse struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		Type         string    `json:"type"`
		Species      string    `json:"species"`
		Quantity     float64   `json:"quantity"`
		UnitPrice    float64   `json:"unitPrice"`
		BuyPrice     float64   `json:"buyPrice"`
		SellPrice    float64   `json:"sellPrice"`
		TotalRevenue float64   `json:"totalRevenue"`
		TotalCost    float64   `json:"totalCost"`
		TotalProfit  float64   `json:"totalProfit"`
		TotalPrice   float64   `json:"totalPrice"`
		Location     string    `json:"location"`
		CollectedAt  time.Time `json:"collectedAt"`
		Notes        string    `json:"notes,omitempty"`
	}

	priceResponse struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		Species   string    `json:"species"`
		Year      int       `json:"year"`
		BuyPrice  float64   `json:"buyPrice"`
		SellPrice float64   `json:"sellPrice"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	summaryResponse struct {
		Revenue   float64 `json:"revenue"`
		Cost      float64 `json:"cost"`
		Profit    float64 `json:"profit"`
		ItemCount int     `json:"itemCount"`
	}

	userSalesResponse struct {
		User        userResponse            `json:"user"`
		SalesByYear map[int]summaryResponse `json:"salesByYear"`
	}

	salesReportResponse struct {
		Users        []userSalesResponse     `json:"users"`
		TotalsByYear map[int]summaryResponse `json:"totalsByYear"`
	}
)

// Request bodies. NullDecimal distinguishes an absent amount from zero and
// accepts both JSON numbers and numeric strings.
type (
	createUserRequest struct {
		AliasName string `json:"aliasName"`
	}

	createRecordRequest struct {
		UserID    string              `json:"userId"`
		Type      string              `json:"type"`
		Species   string              `json:"species"`
		Quantity  decimal.NullDecimal `json:"quantity"`
		UnitPrice decimal.NullDecimal `json:"unitPrice"`
		BuyPrice  decimal.NullDecimal `json:"buyPrice"`
		SellPrice decimal.NullDecimal `json:"sellPrice"`
		Location  string              `json:"location"`
		Notes     string              `json:"notes"`
	}

	updateRecordRequest struct {
		Type      *string             `json:"type"`
		Species   *string             `json:"species"`
		Quantity  decimal.NullDecimal `json:"quantity"`
		UnitPrice decimal.NullDecimal `json:"unitPrice"`
		BuyPrice  decimal.NullDecimal `json:"buyPrice"`
		SellPrice decimal.NullDecimal `json:"sellPrice"`
		Location  *string             `json:"location"`
		Notes     *string             `json:"notes"`
	}

	upsertPriceRequest struct {
		Type      string              `json:"type"`
		Species   string              `json:"species"`
		Year      int                 `json:"year"`
		BuyPrice  decimal.NullDecimal `json:"buyPrice"`
		SellPrice decimal.NullDecimal `json:"sellPrice"`
	}
)

// Fields an update may not set: identity, ownership, timestamps and the
// derived totals.
var immutableRecordFields = []string{"id", "userId", "collectedAt", "totalRevenue", "totalCost", "totalProfit", "totalPrice"}

func (req createRecordRequest) toNewRecord() core.NewRecord {
	return core.NewRecord{
		UserID:    req.UserID,
		Type:      req.Type,
		Species:   req.Species,
		Quantity:  req.Quantity,
		Location:  req.Location,
		Notes:     req.Notes,
		UnitPrice: req.UnitPrice,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
	}
}

func (req updateRecordRequest) toPatch() core.RecordPatch {
	return core.RecordPatch{
		Type:      req.Type,
		Species:   req.Species,
		Quantity:  req.Quantity,
		Location:  req.Location,
		Notes:     req.Notes,
		UnitPrice: req.UnitPrice,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
	}
}

func (req upsertPriceRequest) toNewPrice() core.NewPrice {
	return core.NewPrice{
		Type:      req.Type,
		Species:   req.Species,
		Year:      req.Year,
		BuyPrice:  req.BuyPrice.Decimal,
		SellPrice: req.SellPrice.Decimal,
	}
}

func toUserResponse(u core.User, revenue decimal.Decimal) userResponse {
	return userResponse{
		ID:        u.ID,
		AliasName: u.AliasName,
		CreatedAt: u.CreatedAt,
		Revenue:   revenue.InexactFloat64(),
	}
}

func toRecordResponse(r core.StockRecord) recordResponse {
	return recordResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		Type:         r.Type.String(),
		Species:      r.Species,
		Quantity:     r.Quantity.InexactFloat64(),
		UnitPrice:    r.UnitPrice().InexactFloat64(),
		BuyPrice:     r.BuyPrice.InexactFloat64(),
		SellPrice:    r.SellPrice.InexactFloat64(),
		TotalRevenue: r.TotalRevenue.InexactFloat64(),
		TotalCost:    r.TotalCost.InexactFloat64(),
		TotalProfit:  r.TotalProfit.InexactFloat64(),
		TotalPrice:   r.TotalPrice().InexactFloat64(),
		Location:     r.Location,
		CollectedAt:  r.CollectedAt,
		Notes:        r.Notes,
	}
}

func toRecordResponses(records []core.StockRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func toPriceResponse(p core.PriceReference) priceResponse {
	return priceResponse{
		ID:        p.ID,
		Type:      p.Type.String(),
		Species:   p.Species,
		Year:      p.Year,
		BuyPrice:  p.BuyPrice.InexactFloat64(),
		SellPrice: p.SellPrice.InexactFloat64(),
		UpdatedAt: p.UpdatedAt,
	}
}

func toPriceResponses(prices []core.PriceReference) []priceResponse {
	out := make([]priceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toPriceResponse(p))
	}
	return out
}

func toSummaries(m map[int]core.YearSummary) map[int]summaryResponse {
	out := make(map[int]summaryResponse, len(m))
	for y, s := range m {
		out[y] = summaryResponse{
			Revenue:   s.Revenue.InexactFloat64(),
			Cost:      s.Cost.InexactFloat64(),
			Profit:    s.Profit.InexactFloat64(),
			ItemCount: s.ItemCount,
		}
	}
	return out
}

// toSalesReportResponse reports each user's revenue as the sum of the
// buckets already computed for the report.
func toSalesReportResponse(report services.SalesReport) salesReportResponse {
	out := salesReportResponse{
		Users:        make([]userSalesResponse, 0, len(report.Users)),
		TotalsByYear: toSummaries(report.TotalsByYear),
	}
	for _, u := range report.Users {
		var total core.YearSummary
		for _, s := range u.SalesByYear {
			total = total.Add(s)
		}
		out.Users = append(out.Users, userSalesResponse{
			User:        toUserResponse(u.User, total.Revenue),
			SalesByYear: toSummaries(u.SalesByYear),
		})
	}
	return out
}
