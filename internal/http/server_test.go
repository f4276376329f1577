package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Kristiina602/collecting-stock/internal/services"
	"github.com/Kristiina602/collecting-stock/internal/store/memory"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := memory.New()
	if opts.Ledger == nil {
		opts.Ledger = services.New(s, nil, nil)
	}
	if opts.Aggregator == nil {
		opts.Aggregator = services.NewAggregator(s)
	}
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
	return v
}

func createUser(t *testing.T, srv *Server, alias string) userResponse {
	t.Helper()
	rec, resp := do(t, srv, http.MethodPost, "/api/users", `{"aliasName":"`+alias+`"}`)
	if rec.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("create user: %d %s", rec.Code, rec.Body.String())
	}
	return decodeData[userResponse](t, resp)
}

func createRecord(t *testing.T, srv *Server, body string) recordResponse {
	t.Helper()
	rec, resp := do(t, srv, http.MethodPost, "/api/stock", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create record: %d %s", rec.Code, rec.Body.String())
	}
	return decodeData[recordResponse](t, resp)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec, _ := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	down := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db gone") }})
	rec, _ := do(t, down, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rec.Code)
	}
}

func TestCreateRecordDerivesTotals(t *testing.T) {
	srv := newTestServer(t, Options{})
	u := createUser(t, srv, "fox")

	rec, resp := do(t, srv, http.MethodPost, "/api/stock",
		`{"userId":"`+u.ID+`","type":"berry","species":" Bilberry ","quantity":1500,"buyPrice":2,"sellPrice":8,"location":"North Forest"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if resp.Message != "Collecting item created successfully" {
		t.Errorf("message=%q", resp.Message)
	}
	got := decodeData[recordResponse](t, resp)
	if got.Species != "Bilberry" || got.TotalRevenue != 12 || got.TotalCost != 3 || got.TotalProfit != 9 {
		t.Errorf("unexpected totals: %+v", got)
	}
	if got.UnitPrice != 8 || got.TotalPrice != 12 {
		t.Errorf("legacy fields not synthesized: %+v", got)
	}

	legacy := createRecord(t, srv, `{"userId":"`+u.ID+`","type":"mushroom","species":"Chanterelle","quantity":"500","unitPrice":10,"location":"Bog"}`)
	if legacy.SellPrice != 10 || legacy.BuyPrice != 0 || legacy.TotalRevenue != 5 || legacy.TotalProfit != 5 {
		t.Errorf("legacy unit price not resolved: %+v", legacy)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	srv := newTestServer(t, Options{})
	u := createUser(t, srv, "fox")
	base := func(extra string) string {
		return `{"userId":"` + u.ID + `","species":"Bilberry","location":"Forest"` + extra + `}`
	}

	tests := []struct {
		name   string
		body   string
		status int
		err    string
	}{
		{"missing fields", `{"type":"berry"}`, 400, requiredFieldsMessage},
		{"missing price", base(`,"type":"berry","quantity":10`), 400, "Either unitPrice (legacy) or sellPrice must be provided"},
		{"invalid type", base(`,"type":"nut","quantity":10,"sellPrice":1`), 400, `Type must be either "berry" or "mushroom"`},
		{"zero quantity", base(`,"type":"berry","quantity":0,"sellPrice":1`), 400, "Quantity must be greater than 0"},
		{"negative buy", base(`,"type":"berry","quantity":10,"sellPrice":1,"buyPrice":-1`), 400, "Buy price must be greater than or equal to 0"},
		{"negative unit", base(`,"type":"berry","quantity":10,"unitPrice":-1`), 400, "Unit price must be greater than or equal to 0"},
		{"unknown user", `{"userId":"ghost","type":"berry","species":"s","quantity":1,"sellPrice":1,"location":"l"}`, 404, "User not found"},
		{"bad json", `{"userId":`, 400, "Invalid JSON body"},
		{"wrong type", base(`,"type":"berry","quantity":true,"sellPrice":1`), 400, ""},
		{"empty body", ``, 400, "Request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, srv, http.MethodPost, "/api/stock", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status=%d, want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if resp.Success {
				t.Error("success should be false")
			}
			if tt.err != "" && resp.Error != tt.err {
				t.Errorf("error=%q, want %q", resp.Error, tt.err)
			}
		})
	}

	_, resp := do(t, srv, http.MethodGet, "/api/stock", "")
	if recs := decodeData[[]recordResponse](t, resp); len(recs) != 0 {
		t.Fatalf("failed submissions must not store anything, got %d records", len(recs))
	}
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	srv := newTestServer(t, Options{})
	u := createUser(t, srv, "fox")
	r := createRecord(t, srv, `{"userId":"`+u.ID+`","type":"berry","species":"Bilberry","quantity":1000,"buyPrice":2,"sellPrice":8,"location":"Forest"}`)
	path := "/api/stock/" + r.ID

	rec, resp := do(t, srv, http.MethodPut, path, `{"quantity":2000,"notes":" dry year "}`)
	if rec.Code != http.StatusOK || resp.Message != "Collecting item updated successfully" {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	got := decodeData[recordResponse](t, resp)
	if got.TotalRevenue != 16 || got.TotalCost != 4 || got.TotalProfit != 12 || got.Notes != "dry year" {
		t.Errorf("totals not recomputed: %+v", got)
	}

	rec, _ = do(t, srv, http.MethodPut, path, `{"unitPrice":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("legacy update: %d", rec.Code)
	}
	_, resp = do(t, srv, http.MethodGet, path, "")
	if got := decodeData[recordResponse](t, resp); got.SellPrice != 5 || got.UnitPrice != 5 || got.TotalRevenue != 10 {
		t.Errorf("unit price update should set the sell price: %+v", got)
	}

	for _, body := range []string{`{"userId":"other"}`, `{"totalProfit":1}`, `{"collectedAt":"2020-01-01T00:00:00Z","id":"x"}`} {
		rec, resp := do(t, srv, http.MethodPut, path, body)
		if rec.Code != http.StatusBadRequest || !strings.HasPrefix(resp.Error, "Fields cannot be updated") {
			t.Errorf("%s: expected rejection, got %d %s", body, rec.Code, rec.Body.String())
		}
	}
	if rec, _ := do(t, srv, http.MethodPut, path, `{"quantity":-3}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative quantity should be rejected, got %d", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodPut, "/api/stock/missing", `{"notes":"x"}`); rec.Code != http.StatusNotFound {
		t.Errorf("update of unknown record: %d", rec.Code)
	}

	rec, resp = do(t, srv, http.MethodDelete, path, "")
	if rec.Code != http.StatusOK || resp.Message != "Collecting item deleted successfully" {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	rec, resp = do(t, srv, http.MethodDelete, path, "")
	if rec.Code != http.StatusNotFound || resp.Error != recordNotFoundMessage {
		t.Fatalf("second delete: %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := do(t, srv, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted record: %d", rec.Code)
	}
}

func TestListRecordsFilters(t *testing.T) {
	srv := newTestServer(t, Options{})
	fox := createUser(t, srv, "fox")
	owl := createUser(t, srv, "owl")
	for _, id := range []string{fox.ID, fox.ID, owl.ID} {
		createRecord(t, srv, `{"userId":"`+id+`","type":"berry","species":"s","quantity":100,"sellPrice":1,"location":"l"}`)
	}
	year := time.Now().UTC().Year()

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?userId=" + fox.ID, 2},
		{"?userId=" + fox.ID + "&year=" + itoa(year), 2},
		{"?userId=" + fox.ID + "&year=" + itoa(year-1), 0},
		{"?year=" + itoa(year-1), 3},
	}
	for _, tt := range tests {
		rec, resp := do(t, srv, http.MethodGet, "/api/stock"+tt.query, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.query, rec.Code)
		}
		if got := decodeData[[]recordResponse](t, resp); len(got) != tt.want {
			t.Errorf("%s: got %d records, want %d", tt.query, len(got), tt.want)
		}
	}

	for _, bad := range []string{"soon", "0", "1899", "10000"} {
		if rec, resp := do(t, srv, http.MethodGet, "/api/stock?userId=x&year="+bad, ""); rec.Code != http.StatusBadRequest || !strings.HasPrefix(resp.Error, "Year must be between") {
			t.Errorf("year=%s: %d %s", bad, rec.Code, rec.Body.String())
		}
	}
	_, resp := do(t, srv, http.MethodGet, "/api/stock/years", "")
	if years := decodeData[[]int](t, resp); len(years) != 1 || years[0] != year {
		t.Errorf("years: %v", years)
	}
}

func TestUsersEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	if rec, resp := do(t, srv, http.MethodPost, "/api/users", `{"aliasName":"  "}`); rec.Code != http.StatusBadRequest || resp.Error != "aliasName is required" {
		t.Fatalf("blank alias: %d %s", rec.Code, rec.Body.String())
	}
	fox := createUser(t, srv, "fox")
	createRecord(t, srv, `{"userId":"`+fox.ID+`","type":"berry","species":"s","quantity":2000,"buyPrice":1,"sellPrice":6,"location":"l"}`)
	createRecord(t, srv, `{"userId":"`+fox.ID+`","type":"mushroom","species":"m","quantity":500,"sellPrice":20,"location":"l"}`)

	_, resp := do(t, srv, http.MethodGet, "/api/users/"+fox.ID, "")
	if u := decodeData[userResponse](t, resp); u.AliasName != "fox" || u.Revenue != 22 {
		t.Errorf("user view: %+v", u)
	}
	_, resp = do(t, srv, http.MethodGet, "/api/users", "")
	if users := decodeData[[]userResponse](t, resp); len(users) != 1 || users[0].Revenue != 22 {
		t.Errorf("user list: %+v", users)
	}

	year := itoa(time.Now().UTC().Year())
	_, resp = do(t, srv, http.MethodGet, "/api/users/"+fox.ID+"/profit?type=berry", "")
	profit := decodeData[map[string]summaryResponse](t, resp)
	if s := profit[year]; s.Revenue != 12 || s.Cost != 2 || s.Profit != 10 || s.ItemCount != 1 {
		t.Errorf("berry profit: %+v", profit)
	}
	if rec, _ := do(t, srv, http.MethodGet, "/api/users/"+fox.ID+"/profit?type=nut", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type: %d", rec.Code)
	}
	if rec, resp := do(t, srv, http.MethodGet, "/api/users/ghost/profit", ""); rec.Code != http.StatusNotFound || resp.Error != "User not found" {
		t.Errorf("unknown user profit: %d %s", rec.Code, rec.Body.String())
	}

	_, resp = do(t, srv, http.MethodGet, "/api/sales", "")
	report := decodeData[struct {
		Users []struct {
			User        userResponse               `json:"user"`
			SalesByYear map[string]summaryResponse `json:"salesByYear"`
		} `json:"users"`
		TotalsByYear map[string]summaryResponse `json:"totalsByYear"`
	}](t, resp)
	if len(report.Users) != 1 || report.TotalsByYear[year].ItemCount != 2 || report.TotalsByYear[year].Revenue != 22 {
		t.Errorf("sales report: %+v", report)
	}

	if rec, _ := do(t, srv, http.MethodDelete, "/api/users/"+fox.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete user: %d", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodGet, "/api/users/"+fox.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted user still visible: %d", rec.Code)
	}
	if rec, _ := do(t, srv, http.MethodDelete, "/api/users/"+fox.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
	_, resp = do(t, srv, http.MethodGet, "/api/stock?userId="+fox.ID, "")
	if recs := decodeData[[]recordResponse](t, resp); len(recs) != 2 {
		t.Errorf("records must survive user deletion, got %d", len(recs))
	}
}

func TestPriceEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	year := time.Now().UTC().Year()

	rec, resp := do(t, srv, http.MethodPut, "/api/prices", `{"type":"berry","species":"Bilberry","year":`+itoa(year-1)+`,"buyPrice":2,"sellPrice":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: %d %s", rec.Code, rec.Body.String())
	}
	first := decodeData[priceResponse](t, resp)

	_, resp = do(t, srv, http.MethodPost, "/api/prices", `{"type":"berry","species":"Bilberry","year":`+itoa(year-1)+`,"buyPrice":3,"sellPrice":9}`)
	second := decodeData[priceResponse](t, resp)
	if second.ID != first.ID || second.SellPrice != 9 {
		t.Errorf("upsert should overwrite in place: %+v vs %+v", first, second)
	}
	do(t, srv, http.MethodPut, "/api/prices", `{"type":"mushroom","species":"Chanterelle","year":`+itoa(year)+`,"buyPrice":5,"sellPrice":15}`)

	if rec, resp := do(t, srv, http.MethodPut, "/api/prices", `{"type":"berry","species":"Bilberry","year":1800,"sellPrice":1}`); rec.Code != http.StatusBadRequest || !strings.HasPrefix(resp.Error, "Year must be between") {
		t.Errorf("bad year: %d %s", rec.Code, rec.Body.String())
	}

	_, resp = do(t, srv, http.MethodGet, "/api/prices/current?type=berry&species=Bilberry", "")
	if cur := decodeData[priceResponse](t, resp); cur.Year != year-1 {
		t.Errorf("current price should fall back to the latest year: %+v", cur)
	}
	rec, resp = do(t, srv, http.MethodGet, "/api/prices/current?type=berry&species=Cloudberry", "")
	if rec.Code != http.StatusOK || string(resp.Data) != "null" || !strings.Contains(rec.Body.String(), `"data":null`) {
		t.Errorf("absent current price: %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := do(t, srv, http.MethodGet, "/api/prices/current?species=Bilberry", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("current price without type: %d", rec.Code)
	}

	_, resp = do(t, srv, http.MethodGet, "/api/prices?type=berry", "")
	if list := decodeData[[]priceResponse](t, resp); len(list) != 1 {
		t.Errorf("filtered prices: %+v", list)
	}
	_, resp = do(t, srv, http.MethodGet, "/api/prices/years", "")
	if years := decodeData[[]int](t, resp); len(years) != 2 || years[0] != year {
		t.Errorf("price years: %v", years)
	}
	_, resp = do(t, srv, http.MethodGet, "/api/prices/analysis", "")
	analysis := decodeData[map[string]summaryResponse](t, resp)
	if a := analysis[itoa(year-1)]; a.Revenue != 9 || a.Cost != 3 || a.Profit != 6 || a.ItemCount != 1 {
		t.Errorf("analysis: %+v", analysis)
	}

	if rec, _ := do(t, srv, http.MethodDelete, "/api/prices/"+first.ID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete price: %d", rec.Code)
	}
	if rec, resp := do(t, srv, http.MethodDelete, "/api/prices/"+first.ID, ""); rec.Code != http.StatusNotFound || resp.Error != "Price reference not found" {
		t.Fatalf("second delete: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	rec, _ := do(t, srv, http.MethodGet, "/api/users", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("missing middleware headers: %v", rec.Header())
	}

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, srv, http.MethodPost, "/api/users", `{"aliasName":"a"}`); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec, resp := do(t, srv, http.MethodPost, "/api/users", `{"aliasName":"a"}`)
	if rec.Code != http.StatusTooManyRequests || resp.Success || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected rate limit, got %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := do(t, srv, http.MethodGet, "/api/users", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads are not rate limited: %d", rec.Code)
	}
	if rec, _ := do(t, srv, "TRACE", "/api/users", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("TRACE should be rejected: %d", rec.Code)
	}
}

func TestNewServerRejectsBadProxy(t *testing.T) {
	if _, err := NewServer(Options{TrustedProxies: []string{"not-a-cidr"}}); err == nil {
		t.Fatal("expected error for malformed proxy CIDR")
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
