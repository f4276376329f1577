package http

import (
	"errors"
	"net/http"

	"github.com/Kristiina602/collecting-stock/internal/core"
)

const (
	recordNotFoundMessage = "Collecting item not found"
	requiredFieldsMessage = "All required fields must be provided: userId, type, species, quantity, location"
)

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rec, err := s.ledger.CreateRecord(r.Context(), req.toNewRecord())
	if err != nil {
		var fe *core.FieldError
		if errors.As(err, &fe) && errors.Is(fe.Err, core.ErrMissingField) && fe.Field != "sellPrice" {
			err = badRequest(requiredFieldsMessage)
		}
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toRecordResponse(rec), "Collecting item created successfully")
}

// handleListRecords filters by userId and, with a user, by year.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f, err := parseRecordFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	records, err := s.ledger.ListRecords(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toRecordResponses(records), "")
}

func (s *Server) handleRecordYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.aggregator.AllYears(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, years, "")
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, found, err := s.ledger.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, notFound(recordNotFoundMessage))
		return
	}
	respondData(w, http.StatusOK, toRecordResponse(rec), "")
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeRecordUpdate(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rec, found, err := s.ledger.UpdateRecord(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, notFound(recordNotFoundMessage))
		return
	}
	respondData(w, http.StatusOK, toRecordResponse(rec), "Collecting item updated successfully")
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ledger.DeleteRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		respondError(w, r, notFound(recordNotFoundMessage))
		return
	}
	respondMessage(w, "Collecting item deleted successfully")
}
