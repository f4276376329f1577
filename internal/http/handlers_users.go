package http

import (
	"net/http"

	"github.com/shopspring/decimal"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := s.ledger.CreateUser(r.Context(), req.AliasName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toUserResponse(u, decimal.Zero), "User created successfully")
}

// handleListUsers reports every user with revenue recomputed from records.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.ledger.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		total, err := s.aggregator.UserRevenue(r.Context(), u.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		out = append(out, toUserResponse(u, total.Revenue))
	}
	respondData(w, http.StatusOK, out, "")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, found, err := s.ledger.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, notFound("User not found"))
		return
	}
	total, err := s.aggregator.UserRevenue(r.Context(), u.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toUserResponse(u, total.Revenue), "")
}

// handleDeleteUser removes the user only; its records stay.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ledger.DeleteUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		respondError(w, r, notFound("User not found"))
		return
	}
	respondMessage(w, "User deleted successfully")
}

func (s *Server) handleUserProfit(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTypeParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	byYear, err := s.aggregator.YearlyProfit(r.Context(), r.PathValue("id"), typ)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toSummaries(byYear), "")
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTypeParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	report, err := s.aggregator.AllUsersSalesByYear(r.Context(), typ)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toSalesReportResponse(report), "")
}
