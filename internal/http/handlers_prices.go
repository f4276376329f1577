package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleUpsertPrice(w http.ResponseWriter, r *http.Request) {
	var req upsertPriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.ledger.UpsertPrice(r.Context(), req.toNewPrice())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toPriceResponse(p), "Price reference saved successfully")
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	f, err := parsePriceFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	prices, err := s.ledger.ListPrices(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toPriceResponses(prices), "")
}

// handleCurrentPrice answers with data null when the species has no
// reference price.
func (s *Server) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTypeParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, found, err := s.ledger.CurrentPrice(r.Context(), typ, strings.TrimSpace(r.URL.Query().Get("species")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !found {
		respondData(w, http.StatusOK, jsonNull, "")
		return
	}
	respondData(w, http.StatusOK, toPriceResponse(p), "")
}

func (s *Server) handlePriceYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.aggregator.PriceYears(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, years, "")
}

func (s *Server) handlePriceAnalysis(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTypeParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	byYear, err := s.aggregator.PriceProfitAnalysis(r.Context(), typ)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toSummaries(byYear), "")
}

func (s *Server) handleDeletePrice(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ledger.DeletePrice(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		respondError(w, r, notFound("Price reference not found"))
		return
	}
	respondMessage(w, "Price reference deleted successfully")
}
