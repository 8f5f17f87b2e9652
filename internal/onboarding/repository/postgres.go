package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/domain"
	pointdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/point/domain"
	pointrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/point/repository"
	userrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/user/repository"
)

const onboardingColumns = `id, sector_id, email, name, phone, address, status,
	onboarding_token, onboarding_token_expires_at,
	registration_token, registration_token_expires_at,
	gtc_point_id, signature_path, signature_mime, created_at, updated_at`

// PostgresRepository persists onboardings. The composite transactions reuse
// the point and user repositories bound to the transaction's querier.
type PostgresRepository struct {
	db     *sql.DB
	points *pointrepo.PostgresRepository
	users  *userrepo.PostgresRepository
}

// NewPostgresRepository returns an onboarding repository over database.
func NewPostgresRepository(database *sql.DB, points *pointrepo.PostgresRepository, users *userrepo.PostgresRepository) *PostgresRepository {
	return &PostgresRepository{db: database, points: points, users: users}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Onboarding, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+onboardingColumns+` FROM point_onboardings WHERE id = $1`, id)
	return scanOnboarding(row)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, onboardingToken string) (*domain.Onboarding, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+onboardingColumns+` FROM point_onboardings WHERE onboarding_token = $1`, onboardingToken)
	return scanOnboarding(row)
}

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Onboarding, serviceIDs []string) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO point_onboardings
				(id, sector_id, email, name, status, onboarding_token, onboarding_token_expires_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
			o.ID, o.SectorID, o.Email, o.Name, string(o.Status), o.OnboardingToken, o.OnboardingTokenExpiresAt, o.CreatedAt)
		if err != nil {
			return err
		}
		return insertSelection(ctx, tx, o.ID, serviceIDs)
	})
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.Onboarding, error) {
	return r.list(ctx, `SELECT `+onboardingColumns+` FROM point_onboardings ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListBySector(ctx context.Context, sectorID string) ([]*domain.Onboarding, error) {
	return r.list(ctx, `SELECT `+onboardingColumns+` FROM point_onboardings WHERE sector_id = $1 ORDER BY created_at DESC`, sectorID)
}

func (r *PostgresRepository) ListServiceIDs(ctx context.Context, onboardingID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT service_id FROM point_onboarding_services WHERE onboarding_id = $1`, onboardingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) Submit(ctx context.Context, p SubmitParams) (bool, error) {
	var ok bool
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE point_onboardings
			SET name = $2, phone = $3, address = $4,
				signature_path = COALESCE(NULLIF($5, ''), signature_path),
				signature_mime = COALESCE(NULLIF($6, ''), signature_mime),
				status = 'SUBMITTED', updated_at = now()
			WHERE id = $1 AND status = 'DRAFT'`,
			p.OnboardingID, p.Name, nullString(p.Phone), nullString(p.Address), p.SignaturePath, p.SignatureMime)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		ok = true
		if !p.ReplaceServices {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM point_onboarding_services WHERE onboarding_id = $1`, p.OnboardingID); err != nil {
			return err
		}
		return insertSelection(ctx, tx, p.OnboardingID, p.ServiceIDs)
	})
	return ok, err
}

func (r *PostgresRepository) Approve(ctx context.Context, p ApproveParams) (bool, error) {
	var ok bool
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		// Guard first so a lost race rolls back before any point writes.
		res, err := tx.ExecContext(ctx, `
			UPDATE point_onboardings
			SET status = 'APPROVED', registration_token = $2, registration_token_expires_at = $3, updated_at = now()
			WHERE id = $1 AND status = 'SUBMITTED'`,
			p.OnboardingID, p.RegistrationToken, p.RegistrationTokenExpiresAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		points := r.points.WithQuerier(tx)
		if err := points.UpsertByEmail(ctx, p.Point); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE point_onboardings SET gtc_point_id = $2 WHERE id = $1`,
			p.OnboardingID, p.Point.ID); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, serviceID := range p.ServiceIDs {
			link := &pointdomain.ServiceLink{
				GtcPointID: p.Point.ID,
				ServiceID:  serviceID,
				Status:     pointdomain.LinkEnabled,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := points.UpsertServiceLink(ctx, link); err != nil {
				return err
			}
		}
		ok = true
		return nil
	})
	return ok, err
}

func (r *PostgresRepository) Decline(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE point_onboardings SET status = 'DECLINED', updated_at = now()
		WHERE id = $1 AND status = 'SUBMITTED'`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) Complete(ctx context.Context, p CompleteParams) (bool, error) {
	var ok bool
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE point_onboardings
			SET status = 'COMPLETED', registration_token = NULL, registration_token_expires_at = NULL, updated_at = now()
			WHERE id = $1 AND status = 'APPROVED'`, p.OnboardingID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := r.users.WithQuerier(tx).Create(ctx, p.User); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Onboarding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Onboarding
	for rows.Next() {
		o, err := scanOnboardingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func insertSelection(ctx context.Context, tx *sql.Tx, onboardingID string, serviceIDs []string) error {
	for _, serviceID := range serviceIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO point_onboarding_services (onboarding_id, service_id)
			VALUES ($1, $2)
			ON CONFLICT (onboarding_id, service_id) DO NOTHING`, onboardingID, serviceID)
		if err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOnboarding(row *sql.Row) (*domain.Onboarding, error) {
	o, err := scanOnboardingRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func scanOnboardingRow(s rowScanner) (*domain.Onboarding, error) {
	var o domain.Onboarding
	var phone, address, regToken, pointID, sigPath, sigMime sql.NullString
	var regExpiry sql.NullTime
	err := s.Scan(&o.ID, &o.SectorID, &o.Email, &o.Name, &phone, &address, &o.Status,
		&o.OnboardingToken, &o.OnboardingTokenExpiresAt,
		&regToken, &regExpiry,
		&pointID, &sigPath, &sigMime, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Phone = phone.String
	o.Address = address.String
	o.RegistrationToken = regToken.String
	if regExpiry.Valid {
		o.RegistrationTokenExpiresAt = regExpiry.Time
	}
	o.GtcPointID = pointID.String
	o.SignaturePath = sigPath.String
	o.SignatureMime = sigMime.String
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
