// Package service implements the convention workflow: creation, signed-PDF
// upload, admin decision, and deletion, with role gating and post-commit
// notification fan-out.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	conventiondomain "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/domain"
	conventionrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/repository"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/files"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification"
	notifdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

var pdfMagic = []byte("%PDF")

// Decision is an admin's verdict on a convention.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDecline Decision = "DECLINE"
)

// Recipients lists the notification audiences the workflow addresses.
// Satisfied by the user repository.
type Recipients interface {
	ListAdmins(ctx context.Context) ([]*userdomain.User, error)
	ListByPoint(ctx context.Context, pointID string) ([]*userdomain.User, error)
}

// Upload is the payload of an upload call.
type Upload struct {
	Data     []byte
	Mime     string
	Filename string
}

// Service drives the convention state machine. It owns the convention status
// field; nothing else mutates it.
type Service struct {
	repo       conventionrepo.Repository
	recipients Recipients
	blobs      files.Store
	dispatcher notification.Dispatcher
}

// NewService returns a convention service with the given collaborators.
func NewService(repo conventionrepo.Repository, recipients Recipients, blobs files.Store, dispatcher notification.Dispatcher) *Service {
	return &Service{repo: repo, recipients: recipients, blobs: blobs, dispatcher: dispatcher}
}

// Create starts a convention in NEW. A GTC_POINT actor derives both ids from
// its own affiliation and fails with a conflict when unaffiliated; an ADMIN
// must supply both explicitly.
func (s *Service) Create(ctx context.Context, actor *userdomain.User, gtcPointID, sectorID string) (*conventiondomain.Convention, error) {
	switch actor.Role {
	case rbac.RoleGtcPoint:
		if actor.GtcPointID == "" {
			return nil, apperr.Conflictf("user is not attached to a GTC Point")
		}
		gtcPointID = actor.GtcPointID
		if actor.SectorID != "" {
			sectorID = actor.SectorID
		}
		if sectorID == "" {
			return nil, apperr.Conflictf("user is not attached to a sector")
		}
	case rbac.RoleAdmin:
		if gtcPointID == "" || sectorID == "" {
			return nil, apperr.Validationf("gtcPointId and sectorId are required")
		}
	default:
		return nil, apperr.Unauthorizedf("role %s cannot create conventions", actor.Role)
	}

	now := time.Now().UTC()
	c := &conventiondomain.Convention{
		ID:         uuid.New().String(),
		GtcPointID: gtcPointID,
		SectorID:   sectorID,
		Status:     conventiondomain.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Upload attaches a signed PDF. Finalized conventions are upload-locked. The
// document insert and the at-most-once NEW→UPLOADED advance happen in one
// transaction; the uploaded-notification to admins fires only when the
// transition actually did.
func (s *Service) Upload(ctx context.Context, actor *userdomain.User, conventionID string, up Upload) (*conventiondomain.Document, error) {
	c, err := s.repo.GetByID(ctx, conventionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFoundf("convention %s not found", conventionID)
	}
	if err := s.authorizePointAccess(actor, c); err != nil {
		return nil, err
	}
	if _, err := conventiondomain.Transition(c.Status, conventiondomain.ActionUpload); err != nil {
		return nil, err
	}
	if up.Mime != "application/pdf" || len(up.Data) < len(pdfMagic) || !bytes.Equal(up.Data[:len(pdfMagic)], pdfMagic) {
		return nil, apperr.Validationf("file must be a PDF")
	}

	desc, err := s.blobs.Put(up.Data, up.Mime, up.Filename)
	if err != nil {
		return nil, err
	}
	doc := &conventiondomain.Document{
		ID:           uuid.New().String(),
		ConventionID: c.ID,
		Kind:         conventiondomain.DocumentKindSigned,
		StoredName:   desc.StoredName,
		RelativePath: desc.RelativePath,
		Mime:         desc.Mime,
		Size:         desc.Size,
		Checksum:     desc.Checksum,
		UploadedBy:   actor.ID,
		CreatedAt:    time.Now().UTC(),
	}
	advanced, err := s.repo.AddDocumentAndAdvance(ctx, doc)
	if err != nil {
		// The blob is orphaned; remove it best-effort.
		if rmErr := s.blobs.Remove(desc.RelativePath); rmErr != nil {
			log.Printf("convention: cleanup of %s: %v", desc.RelativePath, rmErr)
		}
		return nil, err
	}

	if advanced {
		s.notifyAdmins(ctx, notification.Input{
			Type:    notifdomain.TypeConventionUploaded,
			Subject: "Convention uploaded",
			Content: fmt.Sprintf("A signed convention was uploaded for review (convention %s).", c.ID),
		})
	}
	return doc, nil
}

// Decide writes a terminal status. Valid from NEW or UPLOADED only; the
// optimistic guard in the repository means a racing second decider observes a
// conflict instead of double-applying.
func (s *Service) Decide(ctx context.Context, actor *userdomain.User, conventionID string, decision Decision, internalSalesRep string) (*conventiondomain.Convention, error) {
	if !rbac.Authorize([]rbac.Role{rbac.RoleAdmin}, actor.Role) {
		return nil, apperr.Unauthorizedf("only admins decide conventions")
	}
	var action conventiondomain.Action
	var notifType notifdomain.Type
	switch decision {
	case DecisionApprove:
		action, notifType = conventiondomain.ActionApprove, notifdomain.TypeConventionApproved
	case DecisionDecline:
		action, notifType = conventiondomain.ActionDecline, notifdomain.TypeConventionDeclined
	default:
		return nil, apperr.Validationf("unknown decision %q", decision)
	}

	c, err := s.repo.GetByID(ctx, conventionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFoundf("convention %s not found", conventionID)
	}
	to, err := conventiondomain.Transition(c.Status, action)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Decide(ctx, c.ID, to, internalSalesRep)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("convention %s was concurrently finalized", c.ID)
	}
	c.Status = to
	if internalSalesRep != "" {
		c.InternalSalesRep = internalSalesRep
	}

	s.notifyPoint(ctx, c.GtcPointID, notification.Input{
		Type:    notifType,
		Subject: fmt.Sprintf("Convention %s", strings.ToLower(string(to))),
		Content: fmt.Sprintf("Your convention was %s.", strings.ToLower(string(to))),
	})
	return c, nil
}

// Delete removes a NEW convention, its documents, and best-effort its blobs.
// A GTC_POINT actor may delete only its own point's convention.
func (s *Service) Delete(ctx context.Context, actor *userdomain.User, conventionID string) error {
	c, err := s.repo.GetByID(ctx, conventionID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.NotFoundf("convention %s not found", conventionID)
	}
	if err := s.authorizePointAccess(actor, c); err != nil {
		return err
	}
	if _, err := conventiondomain.Transition(c.Status, conventiondomain.ActionDelete); err != nil {
		return err
	}

	docs, deleted, err := s.repo.DeleteIfNew(ctx, c.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Conflictf("convention %s is no longer deletable", c.ID)
	}
	for _, d := range docs {
		if err := s.blobs.Remove(d.RelativePath); err != nil {
			// Blob cleanup never blocks deletion.
			log.Printf("convention: remove blob %s: %v", d.RelativePath, err)
		}
	}
	return nil
}

// Get returns one convention, role-gated like the listing.
func (s *Service) Get(ctx context.Context, actor *userdomain.User, conventionID string) (*conventiondomain.Convention, error) {
	c, err := s.repo.GetByID(ctx, conventionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFoundf("convention %s not found", conventionID)
	}
	if err := s.authorizePointAccess(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListForActor returns all conventions for admins, and the own point's
// conventions for GTC_POINT users.
func (s *Service) ListForActor(ctx context.Context, actor *userdomain.User) ([]*conventiondomain.Convention, error) {
	switch actor.Role {
	case rbac.RoleAdmin:
		return s.repo.ListAll(ctx)
	case rbac.RoleGtcPoint:
		if actor.GtcPointID == "" {
			return nil, apperr.Conflictf("user is not attached to a GTC Point")
		}
		return s.repo.ListByPoint(ctx, actor.GtcPointID)
	}
	return nil, apperr.Unauthorizedf("role %s cannot list conventions", actor.Role)
}

func (s *Service) authorizePointAccess(actor *userdomain.User, c *conventiondomain.Convention) error {
	if !rbac.Authorize([]rbac.Role{rbac.RoleAdmin, rbac.RoleGtcPoint}, actor.Role) {
		return apperr.Unauthorizedf("role %s cannot access conventions", actor.Role)
	}
	if actor.Role == rbac.RoleGtcPoint && actor.GtcPointID != c.GtcPointID {
		return apperr.Unauthorizedf("convention belongs to another point")
	}
	return nil
}

func (s *Service) notifyAdmins(ctx context.Context, in notification.Input) {
	admins, err := s.recipients.ListAdmins(ctx)
	if err != nil {
		log.Printf("convention: list admins: %v", err)
		return
	}
	s.dispatcher.NotifyMany(ctx, userIDs(admins), in)
}

func (s *Service) notifyPoint(ctx context.Context, pointID string, in notification.Input) {
	users, err := s.recipients.ListByPoint(ctx, pointID)
	if err != nil {
		log.Printf("convention: list point users: %v", err)
		return
	}
	s.dispatcher.NotifyMany(ctx, userIDs(users), in)
}

func userIDs(users []*userdomain.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
