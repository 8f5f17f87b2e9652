package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	conventiondomain "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/domain"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
)

const conventionColumns = `id, gtc_point_id, sector_id, status, internal_sales_rep, created_at, updated_at`
const documentColumns = `id, convention_id, kind, stored_name, relative_path, mime, size_bytes, checksum, uploaded_by, created_at`

// PostgresRepository persists conventions and their documents.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a convention repository backed by db.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

// GetByID returns the convention for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*conventiondomain.Convention, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conventionColumns+` FROM conventions WHERE id = $1`, id)
	c, err := scanConvention(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create persists the convention. The convention must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *conventiondomain.Convention) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conventions (id, gtc_point_id, sector_id, status, internal_sales_rep, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.GtcPointID, c.SectorID, string(c.Status), nullString(c.InternalSalesRep), c.CreatedAt, c.UpdatedAt)
	return err
}

// ListAll returns every convention, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*conventiondomain.Convention, error) {
	return r.list(ctx, `SELECT `+conventionColumns+` FROM conventions ORDER BY created_at DESC`)
}

// ListByPoint returns the point's conventions, newest first.
func (r *PostgresRepository) ListByPoint(ctx context.Context, pointID string) ([]*conventiondomain.Convention, error) {
	return r.list(ctx, `SELECT `+conventionColumns+` FROM conventions WHERE gtc_point_id = $1 ORDER BY created_at DESC`, pointID)
}

// ListDocuments returns the convention's documents, oldest first.
func (r *PostgresRepository) ListDocuments(ctx context.Context, conventionID string) ([]*conventiondomain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM convention_documents WHERE convention_id = $1 ORDER BY created_at`, conventionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// AddDocumentAndAdvance inserts the document and advances NEW→UPLOADED at most
// once, inside one transaction.
func (r *PostgresRepository) AddDocumentAndAdvance(ctx context.Context, d *conventiondomain.Document) (bool, error) {
	var advanced bool
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO convention_documents (id, convention_id, kind, stored_name, relative_path, mime, size_bytes, checksum, uploaded_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, d.ID, d.ConventionID, string(d.Kind), d.StoredName, d.RelativePath, d.Mime, d.Size, d.Checksum, d.UploadedBy, d.CreatedAt)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE conventions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
		`, string(conventiondomain.StatusUploaded), time.Now().UTC(), d.ConventionID, string(conventiondomain.StatusNew))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		advanced = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}

// Decide writes the terminal status guarded on the current status being
// NEW or UPLOADED, so two racing deciders resolve to one winner.
func (r *PostgresRepository) Decide(ctx context.Context, id string, to conventiondomain.Status, internalSalesRep string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conventions
		SET status = $1, internal_sales_rep = COALESCE($2, internal_sales_rep), updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`, string(to), nullString(internalSalesRep), time.Now().UTC(), id,
		string(conventiondomain.StatusNew), string(conventiondomain.StatusUploaded))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteIfNew removes documents and the convention row in one transaction,
// guarded on status NEW.
func (r *PostgresRepository) DeleteIfNew(ctx context.Context, id string) ([]*conventiondomain.Document, bool, error) {
	var docs []*conventiondomain.Document
	var deleted bool
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+documentColumns+` FROM convention_documents WHERE convention_id = $1 ORDER BY created_at`, id)
		if err != nil {
			return err
		}
		docs, err = collectDocuments(rows)
		rows.Close()
		if err != nil {
			return err
		}
		// Document rows cascade with the convention delete.
		res, err := tx.ExecContext(ctx, `
			DELETE FROM conventions WHERE id = $1 AND status = $2
		`, id, string(conventiondomain.StatusNew))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return docs, deleted, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*conventiondomain.Convention, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*conventiondomain.Convention
	for rows.Next() {
		c, err := scanConvention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConvention(s rowScanner) (*conventiondomain.Convention, error) {
	var c conventiondomain.Convention
	var status string
	var rep sql.NullString
	if err := s.Scan(&c.ID, &c.GtcPointID, &c.SectorID, &status, &rep, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = conventiondomain.Status(status)
	c.InternalSalesRep = rep.String
	return &c, nil
}

func collectDocuments(rows *sql.Rows) ([]*conventiondomain.Document, error) {
	var out []*conventiondomain.Document
	for rows.Next() {
		var d conventiondomain.Document
		var kind string
		if err := rows.Scan(&d.ID, &d.ConventionID, &kind, &d.StoredName, &d.RelativePath, &d.Mime, &d.Size, &d.Checksum, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Kind = conventiondomain.DocumentKind(kind)
		out = append(out, &d)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
