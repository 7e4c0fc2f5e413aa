package api

import (
	"log"
	"net/http"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
)

// handleWebSocket subscribes a connection to its user's watchlist snapshots.
// Browsers cannot set headers on websocket requests, so the token may also
// arrive as ?token=.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.verifier != nil {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, apperr.Auth("missing bearer token"))
			return
		}
		id, err := s.verifier.Verify(ctx, token)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx = auth.WithIdentity(ctx, id)
	}
	userID, err := auth.ResolveUser(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.AddClient(userID, conn)

	if snapshot, err := s.BuildSnapshot(ctx, userID); err == nil {
		_ = s.hub.SendJSON(conn, snapshot)
	} else {
		log.Printf("initial snapshot for %s: %v", userID, err)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(conn)
			return
		}
	}
}
