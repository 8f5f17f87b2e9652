package repository

import (
	"context"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/point/domain"
)

// Repository defines persistence for GTC points, services, and their links.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.GtcPoint, error)
	// UpsertByEmail creates the point or updates name/sector of the existing
	// point with that email. p.ID is overwritten with the persisted id.
	UpsertByEmail(ctx context.Context, p *domain.GtcPoint) error

	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServicesBySector(ctx context.Context, sectorID string) ([]*domain.Service, error)
	// UpsertServiceLink creates or updates the (point, service) link status.
	UpsertServiceLink(ctx context.Context, l *domain.ServiceLink) error
}
