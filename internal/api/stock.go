package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/market"
)

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	exchange := strings.ToUpper(mux.Vars(r)["exchange"])
	if _, ok := market.ResolveVenue(exchange); !ok {
		writeError(w, apperr.Validation("unknown exchange %q", exchange))
		return
	}
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, apperr.Validation("symbol is required"))
		return
	}

	quote, err := s.quotes.GetQuote(r.Context(), symbol, exchange)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": quote})
}

func (s *Server) handleGlobalSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		writeError(w, apperr.Validation("q is required"))
		return
	}
	mkt := strings.ToUpper(strings.TrimSpace(query.Get("market")))
	if mkt == "" {
		mkt = "ALL"
	}
	limit := market.DefaultSearchLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	results, err := s.quotes.Search(r.Context(), q, mkt, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"query":   q,
		"market":  mkt,
		"data":    results,
		"results": results,
		"total":   len(results),
	})
}
