package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

const alertColumns = `id, user_id, ticker, name, alert_type, target_value, market, currency, created_at, triggered, triggered_at`

func (s *SQLStore) ListAlerts(ctx context.Context, userID string) ([]models.StockAlert, error) {
	return s.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM stock_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
}

// ListActiveAlerts returns untriggered alerts of every user, oldest first.
func (s *SQLStore) ListActiveAlerts(ctx context.Context) ([]models.StockAlert, error) {
	return s.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM stock_alerts
		WHERE triggered = $1
		ORDER BY created_at ASC, id ASC`, false)
}

func (s *SQLStore) queryAlerts(ctx context.Context, query string, args ...any) ([]models.StockAlert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("query alerts", err)
	}
	defer rows.Close()

	alerts := make([]models.StockAlert, 0)
	for rows.Next() {
		var a models.StockAlert
		var triggeredAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserID, &a.Ticker, &a.Name, &a.AlertType, &a.TargetValue,
			&a.Market, &a.Currency, &a.CreatedAt, &a.Triggered, &triggeredAt); err != nil {
			return nil, apperr.Storage("scan alert", err)
		}
		if triggeredAt.Valid {
			t := triggeredAt.Time
			a.TriggeredAt = &t
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate alerts", err)
	}
	return alerts, nil
}

func (s *SQLStore) AddAlert(ctx context.Context, in AlertInput) (models.StockAlert, error) {
	alert, err := in.toAlert(uuid.NewString(), s.now())
	if err != nil {
		return models.StockAlert{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stock_alerts(id, user_id, ticker, name, alert_type, target_value, market, currency, created_at, triggered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		alert.ID, alert.UserID, alert.Ticker, alert.Name, alert.AlertType, alert.TargetValue,
		alert.Market, alert.Currency, alert.CreatedAt, false)
	if err != nil {
		return models.StockAlert{}, apperr.Storage("insert alert", err)
	}
	return alert, nil
}

func (s *SQLStore) RemoveAlert(ctx context.Context, userID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stock_alerts WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return apperr.Storage("delete alert", err)
	}
	return nil
}

// FireAlert flips an untriggered alert and records its notification in one
// transaction. It reports false when another poller got there first, so an
// alert fires once, and a failed notification leaves the alert active.
func (s *SQLStore) FireAlert(ctx context.Context, id string, triggeredAt time.Time, n models.Notification) (bool, error) {
	n, err := s.prepareNotification(n)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperr.Storage("begin fire alert", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE stock_alerts
		SET triggered = $1, triggered_at = $2
		WHERE id = $3 AND triggered = $4`, true, triggeredAt, id, false)
	if err != nil {
		return false, apperr.Storage("mark alert triggered", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("alert rows affected", err)
	}
	if rows != 1 {
		return false, nil
	}

	if err := insertNotification(ctx, tx, n); err != nil {
		return false, apperr.Storage("insert alert notification", err)
	}
	if err := tx.Commit(); err != nil {
		return false, apperr.Storage("commit fire alert", err)
	}
	return true, nil
}
