package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/billing"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/realtime"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/store"
)

type Server struct {
	store    store.Store
	quotes   QuoteProvider
	hub      *realtime.Hub
	verifier auth.Verifier
	billing  *billing.Client
	router   *mux.Router
	upgrader websocket.Upgrader

	version string
	baseURL string
	started time.Time
	now     func() time.Time
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol, market string) (models.Quote, error)
	Search(ctx context.Context, query, market string, limit int) ([]models.SearchResult, error)
}

type Option func(*Server)

// WithVerifier turns on bearer authentication for user-scoped routes. Without
// it those routes take the user from the userId parameter.
func WithVerifier(v auth.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

func WithBilling(c *billing.Client) Option {
	return func(s *Server) { s.billing = c }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithBaseURL sets the origin used for links inside notifications.
func WithBaseURL(u string) Option {
	return func(s *Server) { s.baseURL = strings.TrimSuffix(u, "/") }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(s store.Store, q QuoteProvider, hub *realtime.Hub, options ...Option) *Server {
	server := &Server{
		store:  s,
		quotes: q,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		version: "dev",
		started: time.Now(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(server)
	}

	r := mux.NewRouter()
	server.routes(r.PathPrefix("/api").Subrouter())
	server.routes(r)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "error": "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{"success": false, "error": "method not allowed"})
	})

	server.router = r
	return server
}

// routes is mounted twice, at the root and under /api.
func (s *Server) routes(r *mux.Router) {
	private := func(h http.HandlerFunc) http.Handler { return s.requireUser(h) }

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stock/global-search", s.handleGlobalSearch).Methods(http.MethodGet)
	r.HandleFunc("/stock/{exchange}", s.handleQuote).Methods(http.MethodGet)

	r.Handle("/watchlist", private(s.handleListWatchlist)).Methods(http.MethodGet)
	r.Handle("/watchlist", private(s.handleAddWatchlist)).Methods(http.MethodPost)
	r.Handle("/watchlist", private(s.handleRemoveWatchlist)).Methods(http.MethodDelete)

	r.Handle("/alerts", private(s.handleListAlerts)).Methods(http.MethodGet)
	r.Handle("/alerts", private(s.handleAddAlert)).Methods(http.MethodPost)
	r.Handle("/alerts", private(s.handleRemoveAlert)).Methods(http.MethodDelete)

	r.Handle("/notifications", private(s.handleListNotifications)).Methods(http.MethodGet)
	r.Handle("/notifications", private(s.handleCreateNotification)).Methods(http.MethodPost)
	r.Handle("/notifications", private(s.handleMarkNotifications)).Methods(http.MethodPatch)
	r.Handle("/notifications", private(s.handleDeleteNotification)).Methods(http.MethodDelete)

	r.Handle("/support/tickets", private(s.handleListTickets)).Methods(http.MethodGet)
	r.Handle("/support/tickets", private(s.handleCreateTicket)).Methods(http.MethodPost)
	r.Handle("/support/tickets/{id}", private(s.handleUpdateTicket)).Methods(http.MethodPut)

	r.Handle("/payments/create-order", private(s.handleCreateOrder)).Methods(http.MethodPost)
	r.Handle("/payments/verify", private(s.handleVerifyPayment)).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return corsMiddleware(recoverPanic(logRequests(limitBody(s.router))))
}
