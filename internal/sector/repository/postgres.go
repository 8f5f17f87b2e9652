package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/sector/domain"
)

// PostgresRepository persists sectors.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a sector repository that uses q for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the sector for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Sector, error) {
	var s domain.Sector
	err := r.q.QueryRowContext(ctx, `SELECT id, name, created_at FROM sectors WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertByName creates the sector, or loads the existing row when the name is
// already taken. s.ID is overwritten with the persisted id.
func (r *PostgresRepository) UpsertByName(ctx context.Context, s *domain.Sector) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO sectors (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id, created_at
	`, s.ID, s.Name, s.CreatedAt).Scan(&s.ID, &s.CreatedAt)
}

// List returns all sectors ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Sector, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, created_at FROM sectors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Sector
	for rows.Next() {
		var s domain.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
