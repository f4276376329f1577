package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/store"
)

const maxBodyBytes = 1 << 20

// readBody reads a size limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "Request body too large"}
		}
		return nil, badRequest("Invalid request body")
	}
	return body, nil
}

// decodeJSON decodes a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshalBody(body, dst)
}

func unmarshalBody(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return badRequest("Request body must be a JSON object")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return badRequest("Invalid value for %s", typeErr.Field)
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}

// decodeRecordUpdate decodes an update body, refusing fields that a caller
// may not change.
func decodeRecordUpdate(w http.ResponseWriter, r *http.Request) (core.RecordPatch, error) {
	body, err := readBody(w, r)
	if err != nil {
		return core.RecordPatch{}, err
	}
	var fields map[string]json.RawMessage
	if err := unmarshalBody(body, &fields); err != nil {
		return core.RecordPatch{}, err
	}
	var rejected []string
	for _, f := range immutableRecordFields {
		if _, ok := fields[f]; ok {
			rejected = append(rejected, f)
		}
	}
	if len(rejected) > 0 {
		return core.RecordPatch{}, badRequest("Fields cannot be updated: %s", strings.Join(rejected, ", "))
	}

	var req updateRecordRequest
	if err := unmarshalBody(body, &req); err != nil {
		return core.RecordPatch{}, err
	}
	return req.toPatch(), nil
}

// parseTypeParam reads the optional type query parameter.
func parseTypeParam(r *http.Request) (core.ItemType, error) {
	return core.ParseItemType(r.URL.Query().Get("type"))
}

// parseRecordFilter reads userId and year from the query string. A year
// that is present but not a number in MinYear..MaxYear is a validation error.
func parseRecordFilter(r *http.Request) (store.RecordFilter, error) {
	q := r.URL.Query()
	f := store.RecordFilter{UserID: strings.TrimSpace(q.Get("userId"))}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < core.MinYear || y > core.MaxYear {
			return store.RecordFilter{}, &core.FieldError{Field: "year", Err: core.ErrInvalidYear}
		}
		f.Year = y
	}
	return f, nil
}

// parsePriceFilter reads the optional type and species filters.
func parsePriceFilter(r *http.Request) (store.PriceFilter, error) {
	typ, err := parseTypeParam(r)
	if err != nil {
		return store.PriceFilter{}, err
	}
	return store.PriceFilter{Type: typ, Species: strings.TrimSpace(r.URL.Query().Get("species"))}, nil
}
