// Package service implements the point onboarding workflow: admin-created
// invitation links, applicant submission, admin approval or decline, and the
// final registration that turns an approved application into a login-capable
// point user.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/files"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/mail"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification"
	notifdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/domain"
	onboardingrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/repository"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	pointdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/point/domain"
	sectordomain "github.com/enayetsyl/gtc-deploy-sub000/internal/sector/domain"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/token"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// OnboardingTokenTTL bounds how long an invitation link stays usable.
const OnboardingTokenTTL = 7 * 24 * time.Hour

// ServiceCatalog resolves service references for validation. Satisfied by the
// point repository.
type ServiceCatalog interface {
	GetService(ctx context.Context, id string) (*pointdomain.Service, error)
}

// Sectors resolves sector references. Satisfied by the sector repository.
type Sectors interface {
	GetByID(ctx context.Context, id string) (*sectordomain.Sector, error)
}

// Recipients lists notification audiences and resolves applicant emails.
// Satisfied by the user repository.
type Recipients interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	ListAdmins(ctx context.Context) ([]*userdomain.User, error)
	ListSectorOwners(ctx context.Context, sectorID string) ([]*userdomain.User, error)
}

// RegistrationTokens is the slice of the token authority the workflow uses.
type RegistrationTokens interface {
	IssueRegistration(ctx context.Context, userRef, onboardingID string) (tokenString, jti string, err error)
	VerifyRegistration(ctx context.Context, tokenString string) (*token.Grant, error)
	Revoke(ctx context.Context, jti string) error
}

// PasswordHasher hashes registration passwords. Satisfied by security.Hasher.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

// Links builds the applicant-facing URLs mailed during the workflow.
type Links struct {
	BaseURL string
}

func (l Links) Onboarding(onboardingToken string) string {
	return fmt.Sprintf("%s/onboarding?token=%s", strings.TrimRight(l.BaseURL, "/"), onboardingToken)
}

func (l Links) Review(onboardingID string) string {
	return fmt.Sprintf("%s/admin/onboardings/%s", strings.TrimRight(l.BaseURL, "/"), onboardingID)
}

func (l Links) Registration(registrationToken string) string {
	return fmt.Sprintf("%s/register?token=%s", strings.TrimRight(l.BaseURL, "/"), registrationToken)
}

// CreateLinkInput is the admin's invitation request.
type CreateLinkInput struct {
	SectorID   string
	Email      string
	Name       string
	ServiceIDs []string
}

// SubmitInput is the applicant's submission, addressed by the link token.
type SubmitInput struct {
	Token   string
	Name    string
	Phone   string
	Address string

	// ReplaceServices swaps the selection for ServiceIDs wholesale; when
	// false the selection made at creation time is kept.
	ReplaceServices bool
	ServiceIDs      []string

	Signature     []byte
	SignatureMime string
	SignatureName string
}

// Service drives the onboarding state machine. It owns the onboarding status
// field; nothing else mutates it.
type Service struct {
	repo       onboardingrepo.Repository
	catalog    ServiceCatalog
	sectors    Sectors
	recipients Recipients
	blobs      files.Store
	dispatcher notification.Dispatcher
	mailer     mail.Enqueuer
	tokens     RegistrationTokens
	hasher     PasswordHasher
	links      Links
}

// NewService returns an onboarding service with the given collaborators.
func NewService(
	repo onboardingrepo.Repository,
	catalog ServiceCatalog,
	sectors Sectors,
	recipients Recipients,
	blobs files.Store,
	dispatcher notification.Dispatcher,
	mailer mail.Enqueuer,
	tokens RegistrationTokens,
	hasher PasswordHasher,
	links Links,
) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalog,
		sectors:    sectors,
		recipients: recipients,
		blobs:      blobs,
		dispatcher: dispatcher,
		mailer:     mailer,
		tokens:     tokens,
		hasher:     hasher,
		links:      links,
	}
}

// CreateLink starts a DRAFT onboarding and mails the applicant their link.
// Service references are validated strictly: one service outside the target
// sector fails the whole call.
func (s *Service) CreateLink(ctx context.Context, actor *userdomain.User, in CreateLinkInput) (*domain.Onboarding, error) {
	if !rbac.Authorize([]rbac.Role{rbac.RoleAdmin}, actor.Role) {
		return nil, apperr.Unauthorizedf("only admins create onboarding links")
	}
	if in.Email == "" || in.Name == "" {
		return nil, apperr.Validationf("email and name are required")
	}
	sector, err := s.sectors.GetByID(ctx, in.SectorID)
	if err != nil {
		return nil, err
	}
	if sector == nil {
		return nil, apperr.NotFoundf("sector %s not found", in.SectorID)
	}
	for _, serviceID := range in.ServiceIDs {
		svc, err := s.catalog.GetService(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, apperr.Validationf("service %s not found", serviceID)
		}
		if svc.SectorID != in.SectorID {
			return nil, apperr.Validationf("service %s does not belong to sector %s", serviceID, in.SectorID)
		}
	}

	linkToken, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	o := &domain.Onboarding{
		ID:                       uuid.New().String(),
		SectorID:                 in.SectorID,
		Email:                    in.Email,
		Name:                     in.Name,
		Status:                   domain.StatusDraft,
		OnboardingToken:          linkToken,
		OnboardingTokenExpiresAt: now.Add(OnboardingTokenTTL),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.repo.Create(ctx, o, in.ServiceIDs); err != nil {
		return nil, err
	}

	s.mailApplicant(ctx, o.Email, "Complete your GTC Point onboarding",
		fmt.Sprintf(`<p>Hello %s,</p><p>You have been invited to join sector %s as a GTC Point. Complete your application here: <a href="%s">onboarding form</a>. The link expires in 7 days.</p>`,
			o.Name, sector.Name, s.links.Onboarding(o.OnboardingToken)))
	return o, nil
}

// Submit records the applicant's details and signature and moves the
// onboarding to SUBMITTED, then notifies the reviewers.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Onboarding, error) {
	o, err := s.repo.GetByToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("onboarding link not found")
	}
	if o.TokenExpired(time.Now().UTC()) {
		return nil, apperr.ErrExpiredToken
	}
	if _, err := domain.Transition(o.Status, domain.ActionSubmit); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}

	params := onboardingrepo.SubmitParams{
		OnboardingID:    o.ID,
		Name:            in.Name,
		Phone:           in.Phone,
		Address:         in.Address,
		ReplaceServices: in.ReplaceServices,
		ServiceIDs:      in.ServiceIDs,
	}
	if len(in.Signature) > 0 {
		desc, err := s.blobs.Put(in.Signature, in.SignatureMime, in.SignatureName)
		if err != nil {
			return nil, err
		}
		params.SignaturePath = desc.RelativePath
		params.SignatureMime = desc.Mime
	}

	ok, err := s.repo.Submit(ctx, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("onboarding %s was already submitted", o.ID)
	}

	s.notifyReviewers(ctx, o.SectorID, notification.Input{
		Type:    notifdomain.TypeOnboardingSubmitted,
		Subject: "Onboarding submitted",
		Content: fmt.Sprintf("%s submitted an onboarding application. Review it at %s.", in.Name, s.links.Review(o.ID)),
	})

	o.Name = in.Name
	o.Phone = in.Phone
	o.Address = in.Address
	o.SignaturePath = params.SignaturePath
	o.SignatureMime = params.SignatureMime
	o.Status = domain.StatusSubmitted
	return o, nil
}

// Approve materializes the point, enables the still-valid selected services,
// and mails the applicant a registration link. A selected service whose
// sector changed since submission is dropped with a warning instead of
// failing the approval.
func (s *Service) Approve(ctx context.Context, actor *userdomain.User, onboardingID string) (*domain.Onboarding, error) {
	if !rbac.Authorize([]rbac.Role{rbac.RoleAdmin}, actor.Role) {
		return nil, apperr.Unauthorizedf("only admins approve onboardings")
	}
	o, err := s.repo.GetByID(ctx, onboardingID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("onboarding %s not found", onboardingID)
	}
	if _, err := domain.Transition(o.Status, domain.ActionApprove); err != nil {
		return nil, err
	}

	selected, err := s.repo.ListServiceIDs(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	valid, names := s.revalidateServices(ctx, o, selected)

	registrationToken, _, err := s.tokens.IssueRegistration(ctx, o.Email, o.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	point := &pointdomain.GtcPoint{
		ID:        uuid.New().String(),
		Name:      o.Name,
		Email:     o.Email,
		SectorID:  o.SectorID,
		UpdatedAt: now,
	}
	ok, err := s.repo.Approve(ctx, onboardingrepo.ApproveParams{
		OnboardingID:               o.ID,
		Point:                      point,
		ServiceIDs:                 valid,
		RegistrationToken:          registrationToken,
		RegistrationTokenExpiresAt: now.Add(token.DefaultRegistrationTTL),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("onboarding %s was concurrently decided", o.ID)
	}

	s.mailApplicant(ctx, o.Email, "Your onboarding was approved",
		fmt.Sprintf(`<p>Hello %s,</p><p>Your application was approved. Create your account here: <a href="%s">registration</a>. The link expires in 7 days.</p>`,
			o.Name, s.links.Registration(registrationToken)))

	enabled := "none"
	if len(names) > 0 {
		enabled = strings.Join(names, ", ")
	}
	s.notifyReviewers(ctx, o.SectorID, notification.Input{
		Type:    notifdomain.TypeOnboardingApproved,
		Subject: "Onboarding approved",
		Content: fmt.Sprintf("Onboarding for %s was approved. Enabled services: %s.", o.Email, enabled),
	})

	o.Status = domain.StatusApproved
	o.GtcPointID = point.ID
	o.RegistrationToken = registrationToken
	o.RegistrationTokenExpiresAt = now.Add(token.DefaultRegistrationTTL)
	return o, nil
}

// Decline ends a SUBMITTED onboarding and informs the applicant.
func (s *Service) Decline(ctx context.Context, actor *userdomain.User, onboardingID string) (*domain.Onboarding, error) {
	if !rbac.Authorize([]rbac.Role{rbac.RoleAdmin}, actor.Role) {
		return nil, apperr.Unauthorizedf("only admins decline onboardings")
	}
	o, err := s.repo.GetByID(ctx, onboardingID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("onboarding %s not found", onboardingID)
	}
	if _, err := domain.Transition(o.Status, domain.ActionDecline); err != nil {
		return nil, err
	}
	ok, err := s.repo.Decline(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("onboarding %s was concurrently decided", o.ID)
	}

	s.mailApplicant(ctx, o.Email, "Your onboarding was declined",
		fmt.Sprintf("<p>Hello %s,</p><p>We are sorry, your application was not accepted.</p>", o.Name))
	s.notifyReviewers(ctx, o.SectorID, notification.Input{
		Type:    notifdomain.TypeOnboardingDeclined,
		Subject: "Onboarding declined",
		Content: fmt.Sprintf("Onboarding for %s was declined.", o.Email),
	})

	o.Status = domain.StatusDeclined
	return o, nil
}

// CompleteRegistration turns an approved onboarding into a point user. The
// registration grant is consumed so the link cannot be replayed.
func (s *Service) CompleteRegistration(ctx context.Context, registrationToken, password string) (*userdomain.User, error) {
	grant, err := s.tokens.VerifyRegistration(ctx, registrationToken)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, grant.Ref)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("onboarding %s not found", grant.Ref)
	}
	if _, err := domain.Transition(o.Status, domain.ActionComplete); err != nil {
		return nil, err
	}
	if o.GtcPointID == "" {
		return nil, apperr.Conflictf("onboarding %s has no materialized point", o.ID)
	}
	if len(password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}
	if existing, err := s.recipients.GetByEmail(ctx, o.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflictf("a user with email %s already exists", o.Email)
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        o.Email,
		Name:         o.Name,
		PasswordHash: hash,
		Role:         rbac.RoleGtcPoint,
		SectorID:     o.SectorID,
		GtcPointID:   o.GtcPointID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ok, err := s.repo.Complete(ctx, onboardingrepo.CompleteParams{OnboardingID: o.ID, User: u})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflictf("onboarding %s was concurrently completed", o.ID)
	}
	if err := s.tokens.Revoke(ctx, grant.JTI); err != nil {
		log.Printf("onboarding: revoke registration grant %s: %v", grant.JTI, err)
	}

	if _, err := s.dispatcher.NotifyOne(ctx, u.ID, notification.Input{
		Type:    notifdomain.TypeWelcome,
		Subject: "Welcome",
		Content: fmt.Sprintf("Welcome %s, your GTC Point account is ready.", u.Name),
	}); err != nil {
		log.Printf("onboarding: welcome notification for %s: %v", u.ID, err)
	}
	s.notifyReviewers(ctx, o.SectorID, notification.Input{
		Type:    notifdomain.TypeOnboardingCompleted,
		Subject: "Onboarding completed",
		Content: fmt.Sprintf("%s completed registration and can now sign in.", u.Email),
	})
	return u, nil
}

// Get returns one onboarding for review.
func (s *Service) Get(ctx context.Context, actor *userdomain.User, onboardingID string) (*domain.Onboarding, error) {
	o, err := s.repo.GetByID(ctx, onboardingID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("onboarding %s not found", onboardingID)
	}
	if err := s.authorizeRead(actor, o.SectorID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListForActor returns all onboardings for admins and the own sector's for
// sector owners.
func (s *Service) ListForActor(ctx context.Context, actor *userdomain.User) ([]*domain.Onboarding, error) {
	switch actor.Role {
	case rbac.RoleAdmin:
		return s.repo.ListAll(ctx)
	case rbac.RoleSectorOwner:
		if actor.SectorID == "" {
			return nil, apperr.Conflictf("user is not attached to a sector")
		}
		return s.repo.ListBySector(ctx, actor.SectorID)
	}
	return nil, apperr.Unauthorizedf("role %s cannot list onboardings", actor.Role)
}

// revalidateServices keeps only selections still inside the onboarding's
// sector. A reference valid at submission may have drifted since.
func (s *Service) revalidateServices(ctx context.Context, o *domain.Onboarding, selected []string) (ids []string, names []string) {
	for _, serviceID := range selected {
		svc, err := s.catalog.GetService(ctx, serviceID)
		if err != nil {
			log.Printf("onboarding %s: resolve service %s: %v, dropping", o.ID, serviceID, err)
			continue
		}
		if svc == nil {
			log.Printf("onboarding %s: service %s no longer exists, dropping", o.ID, serviceID)
			continue
		}
		if svc.SectorID != o.SectorID {
			log.Printf("onboarding %s: service %s moved out of sector %s, dropping", o.ID, serviceID, o.SectorID)
			continue
		}
		ids = append(ids, svc.ID)
		names = append(names, svc.Name)
	}
	return ids, names
}

func (s *Service) authorizeRead(actor *userdomain.User, sectorID string) error {
	if actor.Role == rbac.RoleAdmin {
		return nil
	}
	if actor.Role == rbac.RoleSectorOwner && actor.SectorID == sectorID {
		return nil
	}
	return apperr.Unauthorizedf("role %s cannot read this onboarding", actor.Role)
}

// notifyReviewers fans out to admins and the sector's owners.
func (s *Service) notifyReviewers(ctx context.Context, sectorID string, in notification.Input) {
	admins, err := s.recipients.ListAdmins(ctx)
	if err != nil {
		log.Printf("onboarding: list admins: %v", err)
		admins = nil
	}
	owners, err := s.recipients.ListSectorOwners(ctx, sectorID)
	if err != nil {
		log.Printf("onboarding: list sector owners: %v", err)
		owners = nil
	}
	seen := make(map[string]bool, len(admins)+len(owners))
	var ids []string
	for _, u := range append(admins, owners...) {
		if !seen[u.ID] {
			seen[u.ID] = true
			ids = append(ids, u.ID)
		}
	}
	s.dispatcher.NotifyMany(ctx, ids, in)
}

// mailApplicant enqueues mail directly; applicants have no user account yet,
// so the dispatcher cannot address them.
func (s *Service) mailApplicant(ctx context.Context, to, subject, html string) {
	if err := s.mailer.Enqueue(ctx, &mail.Message{To: []string{to}, Subject: subject, HTML: html}); err != nil {
		log.Printf("onboarding: enqueue mail to %s: %v", to, err)
	}
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
