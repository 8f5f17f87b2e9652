package token

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore is a GrantStore backed by the auth_grants table. Rows past
// their expiry are treated as absent and removed by a periodic sweep.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a grant store that persists to db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put records the grant, replacing any previous grant with the same jti.
func (s *PostgresStore) Put(ctx context.Context, g *Grant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_grants (jti, kind, user_id, ref, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (jti) DO UPDATE
		SET kind = excluded.kind, user_id = excluded.user_id, ref = excluded.ref, expires_at = excluded.expires_at
	`, g.JTI, string(g.Kind), g.UserID, nullString(g.Ref), g.ExpiresAt)
	return err
}

// Get returns the grant for jti, or nil if missing or expired.
func (s *PostgresStore) Get(ctx context.Context, jti string) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT jti, kind, user_id, ref, expires_at
		FROM auth_grants
		WHERE jti = $1 AND expires_at > now()
	`, jti)
	return scanGrant(row)
}

// Delete removes the grant for jti. Idempotent.
func (s *PostgresStore) Delete(ctx context.Context, jti string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_grants WHERE jti = $1`, jti)
	return err
}

// TakeOnce deletes and returns the grant in one statement. DELETE ... RETURNING
// is atomic, so concurrent rotations of the same refresh token resolve to
// exactly one winner.
func (s *PostgresStore) TakeOnce(ctx context.Context, jti string) (*Grant, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM auth_grants
		WHERE jti = $1 AND expires_at > now()
		RETURNING jti, kind, user_id, ref, expires_at
	`, jti)
	return scanGrant(row)
}

// Sweep deletes expired rows. Postgres has no native TTL, so cmd/server runs
// this periodically via RunSweeper.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_grants WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunSweeper sweeps expired grants every interval until ctx is done.
func (s *PostgresStore) RunSweeper(ctx context.Context, interval time.Duration, logf func(format string, args ...any)) {
	if interval <= 0 {
		interval = SweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Sweep(ctx); err != nil && logf != nil {
				logf("token: grant sweep failed: %v", err)
			}
		}
	}
}

func scanGrant(row *sql.Row) (*Grant, error) {
	var g Grant
	var kind string
	var ref sql.NullString
	err := row.Scan(&g.JTI, &kind, &g.UserID, &ref, &g.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.Kind = Kind(kind)
	if ref.Valid {
		g.Ref = ref.String
	}
	return &g, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
