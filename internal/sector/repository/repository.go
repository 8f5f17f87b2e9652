package repository

import (
	"context"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/sector/domain"
)

// Repository defines persistence for sectors.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Sector, error)
	// UpsertByName creates the sector or returns the existing one with that name.
	UpsertByName(ctx context.Context, s *domain.Sector) error
	List(ctx context.Context) ([]*domain.Sector, error)
}
