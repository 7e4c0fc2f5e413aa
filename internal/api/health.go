package api

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	body := envelope{
		"success":   true,
		"status":    "healthy",
		"timestamp": s.now(),
		"uptime":    math.Round(time.Since(s.started).Seconds()*100) / 100,
		"version":   s.version,
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("health check: %v", err)
		body["success"] = false
		body["status"] = "unhealthy"
		body["error"] = "database unavailable"
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, body)
}
