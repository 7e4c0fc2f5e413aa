package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/store"
)

type ticketRequest struct {
	UserID   string `json:"userId"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

type ticketStatusRequest struct {
	UserID string              `json:"userId"`
	Status models.TicketStatus `json:"status"`
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.ResolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	tickets, err := s.store.ListTickets(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": tickets, "tickets": tickets})
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := auth.ResolveUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	ticket, err := s.store.CreateTicket(r.Context(), store.TicketInput{
		UserID:   userID,
		Subject:  req.Subject,
		Message:  req.Message,
		Priority: req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Support ticket created", "data": ticket, "ticket": ticket})
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	claimed := req.UserID
	if claimed == "" {
		claimed = r.URL.Query().Get("userId")
	}
	userID, err := auth.ResolveUser(r.Context(), claimed)
	if err != nil {
		writeError(w, err)
		return
	}
	ticket, err := s.store.UpdateTicketStatus(r.Context(), userID, mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": ticket, "ticket": ticket})
}
