package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

func (s *SQLStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, link, read, created_at
		FROM notifications
		WHERE user_id = $1`
	args := []any{userID}
	if unreadOnly {
		query += ` AND read = $2`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("query notifications", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, apperr.Storage("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate notifications", err)
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	n, err := s.prepareNotification(n)
	if err != nil {
		return models.Notification{}, err
	}
	if err := insertNotification(ctx, s.db, n); err != nil {
		return models.Notification{}, apperr.Storage("insert notification", err)
	}
	return n, nil
}

func (s *SQLStore) prepareNotification(n models.Notification) (models.Notification, error) {
	n.UserID = strings.TrimSpace(n.UserID)
	n.Title = strings.TrimSpace(n.Title)
	if n.UserID == "" || n.Title == "" {
		return models.Notification{}, apperr.Validation("userId and title are required")
	}
	if n.Type == "" {
		n.Type = "info"
	}
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.now()
	return n, nil
}

func insertNotification(ctx context.Context, ex execer, n models.Notification) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO notifications(id, user_id, type, title, message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.Read, n.CreatedAt)
	return err
}

func (s *SQLStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = $1 WHERE id = $2 AND user_id = $3`, true, id, userID)
	if err != nil {
		return apperr.Storage("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("notification rows affected", err)
	}
	if n == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *SQLStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = $1 WHERE user_id = $2 AND read = $3`, true, userID, false)
	if err != nil {
		return 0, apperr.Storage("mark notifications read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage("notification rows affected", err)
	}
	return n, nil
}

func (s *SQLStore) DeleteNotification(ctx context.Context, userID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return apperr.Storage("delete notification", err)
	}
	return nil
}
