package api

import (
	"net/http"
	"strings"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

type notificationRequest struct {
	UserID  string `json:"userId"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := auth.ResolveUser(r.Context(), query.Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.store.ListNotifications(r.Context(), userID, query.Get("unread") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "notifications": list, "unreadCount": unread})
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := auth.ResolveUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := s.store.CreateNotification(r.Context(), models.Notification{
		UserID:  userID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Link:    req.Link,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "data": n, "notification": n})
}

// handleMarkNotifications marks one notification (?id=) or all of them
// (?all=true) as read.
func (s *Server) handleMarkNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := auth.ResolveUser(r.Context(), query.Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	if query.Get("all") == "true" {
		n, err := s.store.MarkAllNotificationsRead(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{"success": true, "message": "All notifications marked as read", "updated": n})
		return
	}

	id := strings.TrimSpace(query.Get("id"))
	if id == "" {
		writeError(w, apperr.Validation("id or all=true is required"))
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Notification marked as read"})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := strings.TrimSpace(query.Get("id"))
	if id == "" {
		writeError(w, apperr.Validation("id is required"))
		return
	}
	userID, err := auth.ResolveUser(r.Context(), query.Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteNotification(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Notification deleted"})
}
