package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Kristiina602/collecting-stock/internal/core"
	"github.com/Kristiina602/collecting-stock/internal/log"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// jsonNull renders an explicit null under data.
var jsonNull = json.RawMessage("null")

const internalErrorMessage = "Internal server error"

// requestError is an error whose message is safe to show to the caller.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func notFound(message string) error {
	return &requestError{status: http.StatusNotFound, message: message}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func respondMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// respondError maps err to a status: validation failures are 400, missing
// entities 404, anything else a logged 500 with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, envelope{Error: reqErr.message})
	case core.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, envelope{Error: validationMessage(err)})
	case errors.Is(err, core.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Error: "User not found"})
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, r.Method+" "+r.Pattern,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
		writeJSON(w, http.StatusInternalServerError, envelope{Error: internalErrorMessage})
	}
}

// validationMessage renders a core validation error for API callers.
func validationMessage(err error) string {
	var fe *core.FieldError
	if !errors.As(err, &fe) {
		return err.Error()
	}
	switch {
	case errors.Is(fe.Err, core.ErrInvalidType):
		return `Type must be either "berry" or "mushroom"`
	case errors.Is(fe.Err, core.ErrInvalidQuantity):
		return "Quantity must be greater than 0"
	case errors.Is(fe.Err, core.ErrInvalidPrice):
		return priceLabel(fe.Field) + " must be greater than or equal to 0"
	case errors.Is(fe.Err, core.ErrInvalidYear):
		return fmt.Sprintf("Year must be between %d and %d", core.MinYear, core.MaxYear)
	case fe.Field == "sellPrice":
		return "Either unitPrice (legacy) or sellPrice must be provided"
	}
	return fe.Field + " is required"
}

func priceLabel(field string) string {
	switch field {
	case "unitPrice":
		return "Unit price"
	case "buyPrice":
		return "Buy price"
	case "sellPrice":
		return "Sell price"
	}
	return "Price"
}
