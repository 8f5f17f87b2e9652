package repository

import (
	"context"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// ListAdmins returns all ADMIN users, the default audience for workflow notifications.
	ListAdmins(ctx context.Context) ([]*domain.User, error)
	// ListSectorOwners returns SECTOR_OWNER users attached to the sector.
	ListSectorOwners(ctx context.Context, sectorID string) ([]*domain.User, error)
	// ListByPoint returns users attached to the GTC point.
	ListByPoint(ctx context.Context, pointID string) ([]*domain.User, error)
}
