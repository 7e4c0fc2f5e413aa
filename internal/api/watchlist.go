package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/store"
)

type watchlistRequest struct {
	UserID   string `json:"userId"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Market   string `json:"market"`
	Currency string `json:"currency"`
}

type alertRequest struct {
	UserID      string          `json:"userId"`
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	AlertType   string          `json:"alertType"`
	TargetValue json.RawMessage `json:"targetValue"`
	Market      string          `json:"market"`
	Currency    string          `json:"currency"`
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.store.ListWatchlist(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": items, "watchlist": items})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req watchlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := auth.ResolveUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := s.store.AddWatchlistItem(r.Context(), store.WatchlistInput{
		UserID:   userID,
		Ticker:   req.Ticker,
		Name:     req.Name,
		Market:   req.Market,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	go s.pushSnapshot(context.WithoutCancel(r.Context()), userID)
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": fmt.Sprintf("%s added to watchlist", item.Ticker),
		"data":    item,
		"item":    item,
	})
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, apperr.Validation("id is required"))
		return
	}
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.RemoveWatchlistItem(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	go s.pushSnapshot(context.WithoutCancel(r.Context()), userID)
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Removed from watchlist"})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	alerts, err := s.store.ListAlerts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": alerts, "alerts": alerts})
}

func (s *Server) handleAddAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := auth.ResolveUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	alert, err := s.store.AddAlert(r.Context(), store.AlertInput{
		UserID:      userID,
		Ticker:      req.Ticker,
		Name:        req.Name,
		AlertType:   req.AlertType,
		TargetValue: rawText(req.TargetValue),
		Market:      req.Market,
		Currency:    req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": fmt.Sprintf("Alert created for %s", alert.Ticker),
		"data":    alert,
		"alert":   alert,
	})
}

func (s *Server) handleRemoveAlert(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, apperr.Validation("id is required"))
		return
	}
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.RemoveAlert(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Alert deleted"})
}
