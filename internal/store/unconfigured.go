package store

import (
	"context"
	"time"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

// Unconfigured stands in when no database URL is set. Every call fails fast
// instead of attempting a connection.
type Unconfigured struct{}

var errNoDatabase = apperr.NotConfigured("database")

func (Unconfigured) ListWatchlist(context.Context, string) ([]models.WatchlistItem, error) {
	return nil, errNoDatabase
}

func (Unconfigured) AddWatchlistItem(context.Context, WatchlistInput) (models.WatchlistItem, error) {
	return models.WatchlistItem{}, errNoDatabase
}

func (Unconfigured) RemoveWatchlistItem(context.Context, string, string) error { return errNoDatabase }

func (Unconfigured) ListAlerts(context.Context, string) ([]models.StockAlert, error) {
	return nil, errNoDatabase
}

func (Unconfigured) AddAlert(context.Context, AlertInput) (models.StockAlert, error) {
	return models.StockAlert{}, errNoDatabase
}

func (Unconfigured) RemoveAlert(context.Context, string, string) error { return errNoDatabase }

func (Unconfigured) ListActiveAlerts(context.Context) ([]models.StockAlert, error) {
	return nil, errNoDatabase
}

func (Unconfigured) FireAlert(context.Context, string, time.Time, models.Notification) (bool, error) {
	return false, errNoDatabase
}

func (Unconfigured) ListNotifications(context.Context, string, bool) ([]models.Notification, error) {
	return nil, errNoDatabase
}

func (Unconfigured) CreateNotification(context.Context, models.Notification) (models.Notification, error) {
	return models.Notification{}, errNoDatabase
}

func (Unconfigured) MarkNotificationRead(context.Context, string, string) error { return errNoDatabase }

func (Unconfigured) MarkAllNotificationsRead(context.Context, string) (int64, error) {
	return 0, errNoDatabase
}

func (Unconfigured) DeleteNotification(context.Context, string, string) error { return errNoDatabase }

func (Unconfigured) ListTickets(context.Context, string) ([]models.SupportTicket, error) {
	return nil, errNoDatabase
}

func (Unconfigured) CreateTicket(context.Context, TicketInput) (models.SupportTicket, error) {
	return models.SupportTicket{}, errNoDatabase
}

func (Unconfigured) UpdateTicketStatus(context.Context, string, string, models.TicketStatus) (models.SupportTicket, error) {
	return models.SupportTicket{}, errNoDatabase
}

func (Unconfigured) WatchedTickers(context.Context) ([]models.WatchedTicker, error) {
	return nil, errNoDatabase
}

func (Unconfigured) Ping(context.Context) error { return errNoDatabase }
