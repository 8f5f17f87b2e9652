package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/point/domain"
)

// PostgresRepository persists points, services, and service links.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a point repository that uses q for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// WithQuerier returns a copy bound to q (typically an open transaction).
func (r *PostgresRepository) WithQuerier(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the point for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.GtcPoint, error) {
	var p domain.GtcPoint
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, email, sector_id, created_at, updated_at FROM gtc_points WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.SectorID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertByEmail creates the point keyed by its unique email, or refreshes the
// existing row. p.ID is overwritten with the persisted id, so re-approval of
// the same applicant email never yields a second point.
func (r *PostgresRepository) UpsertByEmail(ctx context.Context, p *domain.GtcPoint) error {
	return r.q.QueryRowContext(ctx, `
		INSERT INTO gtc_points (id, name, email, sector_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = excluded.name, sector_id = excluded.sector_id, updated_at = excluded.updated_at
		RETURNING id, created_at
	`, p.ID, p.Name, p.Email, p.SectorID, p.UpdatedAt).Scan(&p.ID, &p.CreatedAt)
}

// GetService returns the service for id, or nil if not found.
func (r *PostgresRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var s domain.Service
	err := r.q.QueryRowContext(ctx, `
		SELECT id, code, name, sector_id, created_at FROM services WHERE id = $1
	`, id).Scan(&s.ID, &s.Code, &s.Name, &s.SectorID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListServicesBySector returns the sector's services ordered by code.
func (r *PostgresRepository) ListServicesBySector(ctx context.Context, sectorID string) ([]*domain.Service, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, code, name, sector_id, created_at FROM services WHERE sector_id = $1 ORDER BY code
	`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.SectorID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// UpsertServiceLink creates or updates the (point, service) link.
func (r *PostgresRepository) UpsertServiceLink(ctx context.Context, l *domain.ServiceLink) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO gtc_point_services (gtc_point_id, service_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (gtc_point_id, service_id) DO UPDATE
		SET status = excluded.status, updated_at = excluded.updated_at
	`, l.GtcPointID, l.ServiceID, string(l.Status), l.UpdatedAt)
	return err
}
