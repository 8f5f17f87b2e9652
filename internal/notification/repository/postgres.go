package repository

import (
	"context"
	"database/sql"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
)

// PostgresRepository persists notifications.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a notification repository that uses q for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// Create persists the notification. The notification must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, subject, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, string(n.Type), n.Subject, n.Content, n.Read, n.CreatedAt)
	return err
}

// CountUnread returns the user's unread notification count.
func (r *PostgresRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read
	`, userID).Scan(&n)
	return n, err
}

// MarkRead flags the notification read. Returns false when no row matched.
func (r *PostgresRepository) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2 AND NOT read
	`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListForUser returns the user's notifications, newest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, type, subject, content, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Subject, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = domain.Type(typ)
		out = append(out, &n)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
var _ db.Querier = (*sql.DB)(nil)
