package repository

import (
	"context"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/convention/domain"
)

// Repository defines persistence for conventions. The composite methods run
// their statements inside one transaction so a crash can never leave a
// document without its status bump or half of a deletion.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Convention, error)
	Create(ctx context.Context, c *domain.Convention) error
	ListAll(ctx context.Context) ([]*domain.Convention, error)
	ListByPoint(ctx context.Context, pointID string) ([]*domain.Convention, error)
	ListDocuments(ctx context.Context, conventionID string) ([]*domain.Document, error)

	// AddDocumentAndAdvance inserts the document and, when the convention is
	// still NEW, advances it to UPLOADED, all in one transaction. Returns
	// whether the advance fired; on a repeat upload it legally does not.
	AddDocumentAndAdvance(ctx context.Context, d *domain.Document) (advanced bool, err error)

	// Decide writes a terminal status with an optimistic guard on the current
	// status being NEW or UPLOADED. Returns false when the guard failed.
	Decide(ctx context.Context, id string, to domain.Status, internalSalesRep string) (bool, error)

	// DeleteIfNew removes the convention and its document rows in one
	// transaction, guarded on status NEW. Returns the removed documents so the
	// caller can clean up blobs, and false when the guard failed.
	DeleteIfNew(ctx context.Context, id string) (docs []*domain.Document, deleted bool, err error)
}
