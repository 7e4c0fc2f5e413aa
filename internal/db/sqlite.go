package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

func openSQLite(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+"_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; one connection keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS watchlist_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	market TEXT NOT NULL DEFAULT 'US',
	currency TEXT NOT NULL DEFAULT 'USD',
	added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS watchlist_items_user_ticker_market
	ON watchlist_items (user_id, ticker, market);

CREATE TABLE IF NOT EXISTS stock_alerts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	target_value REAL NOT NULL,
	market TEXT NOT NULL DEFAULT 'US',
	currency TEXT NOT NULL DEFAULT 'USD',
	triggered INTEGER NOT NULL DEFAULT 0,
	triggered_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS stock_alerts_user ON stock_alerts (user_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	link TEXT NOT NULL DEFAULT '',
	read INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS notifications_user ON notifications (user_id, created_at);

CREATE TABLE IF NOT EXISTS support_tickets (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	message TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
