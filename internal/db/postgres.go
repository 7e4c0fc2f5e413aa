package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(60 * time.Second)
	return db, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS watchlist_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	market TEXT NOT NULL DEFAULT 'US',
	currency TEXT NOT NULL DEFAULT 'USD',
	added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS watchlist_items_user_ticker_market
	ON watchlist_items (user_id, ticker, market);

CREATE TABLE IF NOT EXISTS stock_alerts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	target_value DOUBLE PRECISION NOT NULL,
	market TEXT NOT NULL DEFAULT 'US',
	currency TEXT NOT NULL DEFAULT 'USD',
	triggered BOOLEAN NOT NULL DEFAULT FALSE,
	triggered_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS stock_alerts_user ON stock_alerts (user_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	link TEXT NOT NULL DEFAULT '',
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS notifications_user ON notifications (user_id, created_at);

CREATE TABLE IF NOT EXISTS support_tickets (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	message TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'open',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
