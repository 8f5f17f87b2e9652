package repository

import (
	"context"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
)

// Repository defines persistence for notifications.
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// CountUnread returns the user's unread notification count.
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead flags the notification read. Returns false when no row matched
	// the (userID, id) pair.
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	// ListForUser returns the user's notifications, newest first.
	ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)
}
