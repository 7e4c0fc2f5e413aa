package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

// Store is the persistence boundary. Every read and write is scoped by user id.
type Store interface {
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	AddWatchlistItem(ctx context.Context, in WatchlistInput) (models.WatchlistItem, error)
	RemoveWatchlistItem(ctx context.Context, userID, id string) error

	ListAlerts(ctx context.Context, userID string) ([]models.StockAlert, error)
	AddAlert(ctx context.Context, in AlertInput) (models.StockAlert, error)
	RemoveAlert(ctx context.Context, userID, id string) error
	ListActiveAlerts(ctx context.Context) ([]models.StockAlert, error)
	FireAlert(ctx context.Context, id string, triggeredAt time.Time, n models.Notification) (bool, error)

	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error

	ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error)
	CreateTicket(ctx context.Context, in TicketInput) (models.SupportTicket, error)
	UpdateTicketStatus(ctx context.Context, userID, id string, status models.TicketStatus) (models.SupportTicket, error)

	WatchedTickers(ctx context.Context) ([]models.WatchedTicker, error)
	Ping(ctx context.Context) error
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.Storage("ping", err)
	}
	return nil
}

func (s *SQLStore) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, ticker, name, market, currency, added_at
		FROM watchlist_items
		WHERE user_id = $1
		ORDER BY added_at DESC, id DESC`, userID)
	if err != nil {
		return nil, apperr.Storage("query watchlist", err)
	}
	defer rows.Close()

	items := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var it models.WatchlistItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Ticker, &it.Name, &it.Market, &it.Currency, &it.AddedAt); err != nil {
			return nil, apperr.Storage("scan watchlist item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate watchlist", err)
	}
	return items, nil
}

// AddWatchlistItem inserts only when (user, ticker, market) is absent. The
// unique index decides, so two concurrent duplicates cannot both land.
func (s *SQLStore) AddWatchlistItem(ctx context.Context, in WatchlistInput) (models.WatchlistItem, error) {
	item, err := in.toItem(uuid.NewString(), s.now())
	if err != nil {
		return models.WatchlistItem{}, err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO watchlist_items(id, user_id, ticker, name, market, currency, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, ticker, market) DO NOTHING
		RETURNING id`,
		item.ID, item.UserID, item.Ticker, item.Name, item.Market, item.Currency, item.AddedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchlistItem{}, apperr.Conflict("%s (%s) is already in your watchlist", item.Ticker, item.Market)
	}
	if err != nil {
		return models.WatchlistItem{}, apperr.Storage("insert watchlist item", err)
	}
	return item, nil
}

// RemoveWatchlistItem is a no-op when the id is unknown or owned by someone else.
func (s *SQLStore) RemoveWatchlistItem(ctx context.Context, userID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM watchlist_items WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return apperr.Storage("delete watchlist item", err)
	}
	return nil
}

func (s *SQLStore) WatchedTickers(ctx context.Context) ([]models.WatchedTicker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, market FROM watchlist_items
		UNION
		SELECT ticker, market FROM stock_alerts WHERE triggered = $1
		ORDER BY 1, 2`, false)
	if err != nil {
		return nil, apperr.Storage("query watched tickers", err)
	}
	defer rows.Close()

	out := make([]models.WatchedTicker, 0)
	for rows.Next() {
		var wt models.WatchedTicker
		if err := rows.Scan(&wt.Ticker, &wt.Market); err != nil {
			return nil, apperr.Storage("scan watched ticker", err)
		}
		out = append(out, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate watched tickers", err)
	}
	return out, nil
}
