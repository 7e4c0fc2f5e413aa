package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

const ticketColumns = `id, user_id, subject, message, priority, status, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (models.SupportTicket, error) {
	var t models.SupportTicket
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Message, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *SQLStore) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM support_tickets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, apperr.Storage("query tickets", err)
	}
	defer rows.Close()

	out := make([]models.SupportTicket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, apperr.Storage("scan ticket", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate tickets", err)
	}
	return out, nil
}

func (s *SQLStore) CreateTicket(ctx context.Context, in TicketInput) (models.SupportTicket, error) {
	t, err := in.toTicket(uuid.NewString(), s.now())
	if err != nil {
		return models.SupportTicket{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO support_tickets(id, user_id, subject, message, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Subject, t.Message, t.Priority, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return models.SupportTicket{}, apperr.Storage("insert ticket", err)
	}
	return t, nil
}

func (s *SQLStore) UpdateTicketStatus(ctx context.Context, userID, id string, status models.TicketStatus) (models.SupportTicket, error) {
	if !status.Valid() {
		return models.SupportTicket{}, apperr.Validation("status must be open, in_progress, resolved or closed")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE support_tickets SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`, status, s.now(), id, userID)
	if err != nil {
		return models.SupportTicket{}, apperr.Storage("update ticket", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.SupportTicket{}, apperr.Storage("ticket rows affected", err)
	} else if n == 0 {
		return models.SupportTicket{}, apperr.NotFound("ticket not found")
	}

	t, err := scanTicket(s.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SupportTicket{}, apperr.NotFound("ticket not found")
	}
	if err != nil {
		return models.SupportTicket{}, apperr.Storage("fetch ticket", err)
	}
	return t, nil
}
