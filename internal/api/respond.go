package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
)

// envelope is the response body: success plus either data or error, and the
// resource key clients already read (watchlist, alert, results...).
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and a client-safe message. Server-side
// failures are logged with their full text and answered generically.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= 500 {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, envelope{"success": false, "error": apperr.Message(err, fallbackMessage(status))})
}

func fallbackMessage(status int) string {
	switch status {
	case http.StatusBadGateway:
		return "upstream service error"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return apperr.Validation("request body must be a single JSON object")
	}
	return nil
}

// rawText turns a JSON string or number into its text so "123.45" and 123.45
// validate the same way. null and absent become "".
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
