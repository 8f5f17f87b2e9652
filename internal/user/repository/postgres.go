package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

const userColumns = `id, email, name, password_hash, role, sector_id, gtc_point_id, created_at, updated_at`

// PostgresRepository persists users. It runs against a *sql.DB or, for writes
// that join a workflow transaction, any db.Querier.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a user repository that uses q for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// WithQuerier returns a copy bound to q (typically an open transaction).
func (r *PostgresRepository) WithQuerier(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, sector_id, gtc_point_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role),
		nullString(u.SectorID), nullString(u.GtcPointID), u.CreatedAt, u.UpdatedAt)
	return err
}

// ListAdmins returns all ADMIN users.
func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at`, string(rbac.RoleAdmin))
}

// ListSectorOwners returns SECTOR_OWNER users attached to sectorID.
func (r *PostgresRepository) ListSectorOwners(ctx context.Context, sectorID string) ([]*domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 AND sector_id = $2 ORDER BY created_at`,
		string(rbac.RoleSectorOwner), sectorID)
}

// ListByPoint returns users attached to pointID.
func (r *PostgresRepository) ListByPoint(ctx context.Context, pointID string) ([]*domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE gtc_point_id = $1 ORDER BY created_at`, pointID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUserRow(s rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	var sectorID, pointID sql.NullString
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &sectorID, &pointID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = rbac.Role(role)
	u.SectorID = sectorID.String
	u.GtcPointID = pointID.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
