package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

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

type memOnboardingRepo struct {
	rows      map[string]*domain.Onboarding
	selection map[string][]string
	points    map[string]*pointdomain.GtcPoint // keyed by email
	links     map[string][]string              // point id -> enabled service ids
	users     []*userdomain.User
}

func newMemOnboardingRepo() *memOnboardingRepo {
	return &memOnboardingRepo{
		rows:      map[string]*domain.Onboarding{},
		selection: map[string][]string{},
		points:    map[string]*pointdomain.GtcPoint{},
		links:     map[string][]string{},
	}
}

func (m *memOnboardingRepo) GetByID(_ context.Context, id string) (*domain.Onboarding, error) {
	o, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOnboardingRepo) GetByToken(_ context.Context, tok string) (*domain.Onboarding, error) {
	for _, o := range m.rows {
		if o.OnboardingToken == tok {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memOnboardingRepo) Create(_ context.Context, o *domain.Onboarding, serviceIDs []string) error {
	cp := *o
	m.rows[o.ID] = &cp
	m.selection[o.ID] = append([]string(nil), serviceIDs...)
	return nil
}

func (m *memOnboardingRepo) ListAll(_ context.Context) ([]*domain.Onboarding, error) {
	var out []*domain.Onboarding
	for _, o := range m.rows {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memOnboardingRepo) ListBySector(_ context.Context, sectorID string) ([]*domain.Onboarding, error) {
	var out []*domain.Onboarding
	for _, o := range m.rows {
		if o.SectorID == sectorID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOnboardingRepo) ListServiceIDs(_ context.Context, onboardingID string) ([]string, error) {
	return append([]string(nil), m.selection[onboardingID]...), nil
}

func (m *memOnboardingRepo) Submit(_ context.Context, p onboardingrepo.SubmitParams) (bool, error) {
	o, ok := m.rows[p.OnboardingID]
	if !ok || o.Status != domain.StatusDraft {
		return false, nil
	}
	o.Name, o.Phone, o.Address = p.Name, p.Phone, p.Address
	if p.SignaturePath != "" {
		o.SignaturePath, o.SignatureMime = p.SignaturePath, p.SignatureMime
	}
	if p.ReplaceServices {
		m.selection[o.ID] = append([]string(nil), p.ServiceIDs...)
	}
	o.Status = domain.StatusSubmitted
	return true, nil
}

func (m *memOnboardingRepo) Approve(_ context.Context, p onboardingrepo.ApproveParams) (bool, error) {
	o, ok := m.rows[p.OnboardingID]
	if !ok || o.Status != domain.StatusSubmitted {
		return false, nil
	}
	if existing, ok := m.points[p.Point.Email]; ok {
		p.Point.ID = existing.ID
	}
	cp := *p.Point
	m.points[p.Point.Email] = &cp
	m.links[p.Point.ID] = append([]string(nil), p.ServiceIDs...)
	o.Status = domain.StatusApproved
	o.GtcPointID = p.Point.ID
	o.RegistrationToken = p.RegistrationToken
	o.RegistrationTokenExpiresAt = p.RegistrationTokenExpiresAt
	return true, nil
}

func (m *memOnboardingRepo) Decline(_ context.Context, id string) (bool, error) {
	o, ok := m.rows[id]
	if !ok || o.Status != domain.StatusSubmitted {
		return false, nil
	}
	o.Status = domain.StatusDeclined
	return true, nil
}

func (m *memOnboardingRepo) Complete(_ context.Context, p onboardingrepo.CompleteParams) (bool, error) {
	o, ok := m.rows[p.OnboardingID]
	if !ok || o.Status != domain.StatusApproved {
		return false, nil
	}
	m.users = append(m.users, p.User)
	o.Status = domain.StatusCompleted
	o.RegistrationToken = ""
	return true, nil
}

type memCatalog struct {
	services map[string]*pointdomain.Service
}

func (m *memCatalog) GetService(_ context.Context, id string) (*pointdomain.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

type memSectors struct {
	sectors map[string]*sectordomain.Sector
}

func (m *memSectors) GetByID(_ context.Context, id string) (*sectordomain.Sector, error) {
	s, ok := m.sectors[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

type memRecipients struct {
	admins       []*userdomain.User
	sectorOwners map[string][]*userdomain.User
	byEmail      map[string]*userdomain.User
}

func (m *memRecipients) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	return m.byEmail[email], nil
}

func (m *memRecipients) ListAdmins(_ context.Context) ([]*userdomain.User, error) {
	return m.admins, nil
}

func (m *memRecipients) ListSectorOwners(_ context.Context, sectorID string) ([]*userdomain.User, error) {
	return m.sectorOwners[sectorID], nil
}

type recordedNotice struct {
	userID string
	in     notification.Input
}

type recordingDispatcher struct {
	sent []recordedNotice
}

func (r *recordingDispatcher) NotifyOne(_ context.Context, userID string, in notification.Input) (*notifdomain.Notification, error) {
	r.sent = append(r.sent, recordedNotice{userID: userID, in: in})
	return &notifdomain.Notification{ID: fmt.Sprintf("n-%d", len(r.sent)), UserID: userID}, nil
}

func (r *recordingDispatcher) NotifyMany(ctx context.Context, userIDs []string, in notification.Input) {
	for _, id := range userIDs {
		_, _ = r.NotifyOne(ctx, id, in)
	}
}

type memEnqueuer struct {
	sent []*mail.Message
}

func (m *memEnqueuer) Enqueue(_ context.Context, msg *mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memEnqueuer) Close() error { return nil }

type memBlobStore struct {
	puts int
}

func (m *memBlobStore) Put(data []byte, mime, originalName string) (*files.Descriptor, error) {
	m.puts++
	return &files.Descriptor{
		StoredName:   fmt.Sprintf("sig-%d", m.puts),
		RelativePath: fmt.Sprintf("signatures/sig-%d", m.puts),
		Mime:         mime,
		Size:         int64(len(data)),
		Checksum:     "cafebabe",
	}, nil
}

func (m *memBlobStore) Remove(string) error { return nil }

type fakeTokens struct {
	issued  int
	grants  map[string]*token.Grant // token string -> grant
	revoked []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{grants: map[string]*token.Grant{}}
}

func (f *fakeTokens) IssueRegistration(_ context.Context, userRef, onboardingID string) (string, string, error) {
	f.issued++
	tok := fmt.Sprintf("reg-token-%d", f.issued)
	jti := fmt.Sprintf("jti-%d", f.issued)
	f.grants[tok] = &token.Grant{
		JTI:       jti,
		Kind:      token.KindRegistration,
		UserID:    userRef,
		Ref:       onboardingID,
		ExpiresAt: time.Now().Add(token.DefaultRegistrationTTL),
	}
	return tok, jti, nil
}

func (f *fakeTokens) VerifyRegistration(_ context.Context, tok string) (*token.Grant, error) {
	g, ok := f.grants[tok]
	if !ok {
		return nil, apperr.ErrRevokedToken
	}
	return g, nil
}

func (f *fakeTokens) Revoke(_ context.Context, jti string) error {
	f.revoked = append(f.revoked, jti)
	for tok, g := range f.grants {
		if g.JTI == jti {
			delete(f.grants, tok)
		}
	}
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password []byte) (string, error) {
	return "hashed:" + string(password), nil
}

type fixture struct {
	svc        *Service
	repo       *memOnboardingRepo
	catalog    *memCatalog
	recipients *memRecipients
	blobs      *memBlobStore
	dispatcher *recordingDispatcher
	mailer     *memEnqueuer
	tokens     *fakeTokens
}

func newFixture() *fixture {
	repo := newMemOnboardingRepo()
	catalog := &memCatalog{services: map[string]*pointdomain.Service{
		"svc-x": {ID: "svc-x", Code: "X", Name: "Service X", SectorID: "sector-1"},
		"svc-y": {ID: "svc-y", Code: "Y", Name: "Service Y", SectorID: "sector-2"},
		"svc-z": {ID: "svc-z", Code: "Z", Name: "Service Z", SectorID: "sector-1"},
	}}
	sectors := &memSectors{sectors: map[string]*sectordomain.Sector{
		"sector-1": {ID: "sector-1", Name: "Training"},
		"sector-2": {ID: "sector-2", Name: "Logistics"},
	}}
	recipients := &memRecipients{
		admins: []*userdomain.User{{ID: "admin-1", Role: rbac.RoleAdmin}},
		sectorOwners: map[string][]*userdomain.User{
			"sector-1": {{ID: "owner-1", Role: rbac.RoleSectorOwner, SectorID: "sector-1"}},
		},
		byEmail: map[string]*userdomain.User{},
	}
	blobs := &memBlobStore{}
	dispatcher := &recordingDispatcher{}
	mailer := &memEnqueuer{}
	tokens := newFakeTokens()
	svc := NewService(repo, catalog, sectors, recipients, blobs, dispatcher, mailer, tokens, fakeHasher{},
		Links{BaseURL: "https://app.example.com/"})
	return &fixture{svc: svc, repo: repo, catalog: catalog, recipients: recipients, blobs: blobs,
		dispatcher: dispatcher, mailer: mailer, tokens: tokens}
}

func admin() *userdomain.User {
	return &userdomain.User{ID: "admin-1", Role: rbac.RoleAdmin}
}

func (f *fixture) createDraft(t *testing.T, serviceIDs ...string) *domain.Onboarding {
	t.Helper()
	o, err := f.svc.CreateLink(context.Background(), admin(), CreateLinkInput{
		SectorID:   "sector-1",
		Email:      "applicant@example.com",
		Name:       "Applicant",
		ServiceIDs: serviceIDs,
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	return o
}

func (f *fixture) submit(t *testing.T, o *domain.Onboarding) {
	t.Helper()
	if _, err := f.svc.Submit(context.Background(), SubmitInput{Token: o.OnboardingToken, Name: "Applicant"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestCreateLinkRejectsCrossSectorService(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateLink(context.Background(), admin(), CreateLinkInput{
		SectorID:   "sector-1",
		Email:      "a@example.com",
		Name:       "A",
		ServiceIDs: []string{"svc-x", "svc-y"}, // svc-y belongs to sector-2
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(f.repo.rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(f.repo.rows))
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("mails = %d, want 0", len(f.mailer.sent))
	}
}

func TestCreateLinkMailsOnboardingLink(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t, "svc-x")

	if o.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", o.Status)
	}
	if o.OnboardingToken == "" {
		t.Fatalf("empty onboarding token")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mails = %d, want 1", len(f.mailer.sent))
	}
	m := f.mailer.sent[0]
	if m.To[0] != "applicant@example.com" {
		t.Fatalf("to = %v", m.To)
	}
	if !strings.Contains(m.HTML, "token="+o.OnboardingToken) {
		t.Fatalf("mail body misses onboarding link: %s", m.HTML)
	}
}

func TestCreateLinkRequiresAdmin(t *testing.T) {
	f := newFixture()
	owner := &userdomain.User{ID: "owner-1", Role: rbac.RoleSectorOwner, SectorID: "sector-1"}

	_, err := f.svc.CreateLink(context.Background(), owner, CreateLinkInput{SectorID: "sector-1", Email: "a@b.c", Name: "A"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestSubmitExpiredTokenFails(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.repo.rows[o.ID].OnboardingTokenExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err := f.svc.Submit(context.Background(), SubmitInput{Token: o.OnboardingToken, Name: "Applicant"})
	if !errors.Is(err, apperr.ErrExpiredToken) {
		t.Fatalf("err = %v, want expired token", err)
	}
}

func TestSubmitUnknownTokenNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Submit(context.Background(), SubmitInput{Token: "nope", Name: "Applicant"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSubmitReplacesSelectionAndStoresSignature(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t, "svc-x")

	got, err := f.svc.Submit(context.Background(), SubmitInput{
		Token:           o.OnboardingToken,
		Name:            "Applicant Full",
		Phone:           "+39 333 1234567",
		ReplaceServices: true,
		ServiceIDs:      []string{"svc-z"},
		Signature:       []byte("png bytes"),
		SignatureMime:   "image/png",
		SignatureName:   "signature.png",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != domain.StatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
	if got.SignaturePath == "" || got.SignatureMime != "image/png" {
		t.Fatalf("signature descriptor = %q %q", got.SignaturePath, got.SignatureMime)
	}
	sel := f.repo.selection[o.ID]
	if len(sel) != 1 || sel[0] != "svc-z" {
		t.Fatalf("selection = %v, want [svc-z]", sel)
	}

	// admins and sector owners each get a review notice
	if len(f.dispatcher.sent) != 2 {
		t.Fatalf("notices = %d, want 2", len(f.dispatcher.sent))
	}
	for _, n := range f.dispatcher.sent {
		if n.in.Type != notifdomain.TypeOnboardingSubmitted {
			t.Fatalf("notice type = %s", n.in.Type)
		}
		if !strings.Contains(n.in.Content, o.ID) {
			t.Fatalf("review notice misses link: %s", n.in.Content)
		}
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)

	_, err := f.svc.Submit(context.Background(), SubmitInput{Token: o.OnboardingToken, Name: "Applicant"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestApproveEnablesServicesAndMailsRegistrationLink(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t, "svc-x", "svc-z")
	f.submit(t, o)
	f.mailer.sent = nil
	f.dispatcher.sent = nil

	got, err := f.svc.Approve(context.Background(), admin(), o.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", got.Status)
	}
	if got.GtcPointID == "" {
		t.Fatalf("no materialized point")
	}
	if links := f.repo.links[got.GtcPointID]; len(links) != 2 {
		t.Fatalf("enabled links = %v, want 2", links)
	}
	if len(f.mailer.sent) != 1 || !strings.Contains(f.mailer.sent[0].HTML, "token="+got.RegistrationToken) {
		t.Fatalf("registration mail = %+v", f.mailer.sent)
	}
	if len(f.dispatcher.sent) != 2 {
		t.Fatalf("notices = %d, want 2", len(f.dispatcher.sent))
	}
	if !strings.Contains(f.dispatcher.sent[0].in.Content, "Service X") {
		t.Fatalf("approval notice misses enabled services: %s", f.dispatcher.sent[0].in.Content)
	}
}

func TestApproveDropsDriftedServiceWithPartialSuccess(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t, "svc-x", "svc-z")
	f.submit(t, o)

	// svc-z drifts into another sector between submission and approval.
	f.catalog.services["svc-z"].SectorID = "sector-2"

	got, err := f.svc.Approve(context.Background(), admin(), o.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	links := f.repo.links[got.GtcPointID]
	if len(links) != 1 || links[0] != "svc-x" {
		t.Fatalf("enabled links = %v, want [svc-x]", links)
	}
}

func TestApproveTwiceConflictsAndKeepsOnePoint(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)

	if _, err := f.svc.Approve(context.Background(), admin(), o.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := f.svc.Approve(context.Background(), admin(), o.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second approve err = %v, want conflict", err)
	}
	if len(f.repo.points) != 1 {
		t.Fatalf("points = %d, want 1", len(f.repo.points))
	}
}

func TestApproveFromDraftConflicts(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)

	_, err := f.svc.Approve(context.Background(), admin(), o.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDeclineMailsApplicant(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)
	f.mailer.sent = nil

	got, err := f.svc.Decline(context.Background(), admin(), o.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Status != domain.StatusDeclined {
		t.Fatalf("status = %s, want DECLINED", got.Status)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].To[0] != "applicant@example.com" {
		t.Fatalf("applicant mail = %+v", f.mailer.sent)
	}

	if _, err := f.svc.Approve(context.Background(), admin(), o.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("approve after decline err = %v, want conflict", err)
	}
}

func TestCompleteRegistrationCreatesPointUser(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)
	approved, err := f.svc.Approve(context.Background(), admin(), o.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	f.dispatcher.sent = nil

	u, err := f.svc.CompleteRegistration(context.Background(), approved.RegistrationToken, "s3cure-pass")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if u.Role != rbac.RoleGtcPoint || u.GtcPointID != approved.GtcPointID {
		t.Fatalf("user = %+v", u)
	}
	if u.PasswordHash != "hashed:s3cure-pass" {
		t.Fatalf("password hash = %s", u.PasswordHash)
	}
	if got := f.repo.rows[o.ID].Status; got != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got)
	}
	if len(f.tokens.revoked) != 1 {
		t.Fatalf("revoked grants = %v, want 1", f.tokens.revoked)
	}

	// welcome to the new user plus the reviewer fan-out
	if len(f.dispatcher.sent) != 3 {
		t.Fatalf("notices = %d, want 3", len(f.dispatcher.sent))
	}
	if f.dispatcher.sent[0].userID != u.ID || f.dispatcher.sent[0].in.Type != notifdomain.TypeWelcome {
		t.Fatalf("first notice = %+v, want welcome to new user", f.dispatcher.sent[0])
	}
}

func TestCompleteRegistrationReplayFails(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)
	approved, _ := f.svc.Approve(context.Background(), admin(), o.ID)

	if _, err := f.svc.CompleteRegistration(context.Background(), approved.RegistrationToken, "s3cure-pass"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := f.svc.CompleteRegistration(context.Background(), approved.RegistrationToken, "s3cure-pass")
	if !errors.Is(err, apperr.ErrRevokedToken) {
		t.Fatalf("replay err = %v, want revoked token", err)
	}
}

func TestCompleteRegistrationShortPassword(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)
	approved, _ := f.svc.Approve(context.Background(), admin(), o.ID)

	_, err := f.svc.CompleteRegistration(context.Background(), approved.RegistrationToken, "short")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCompleteRegistrationExistingEmailConflicts(t *testing.T) {
	f := newFixture()
	o := f.createDraft(t)
	f.submit(t, o)
	approved, _ := f.svc.Approve(context.Background(), admin(), o.ID)
	f.recipients.byEmail["applicant@example.com"] = &userdomain.User{ID: "existing", Email: "applicant@example.com"}

	_, err := f.svc.CompleteRegistration(context.Background(), approved.RegistrationToken, "s3cure-pass")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestListForActorScopesByRole(t *testing.T) {
	f := newFixture()
	f.createDraft(t)

	all, err := f.svc.ListForActor(context.Background(), admin())
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("admin sees %d, want 1", len(all))
	}

	owner := &userdomain.User{ID: "owner-1", Role: rbac.RoleSectorOwner, SectorID: "sector-1"}
	own, err := f.svc.ListForActor(context.Background(), owner)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("owner sees %d, want 1", len(own))
	}

	stranger := &userdomain.User{ID: "x", Role: rbac.RoleSectorOwner, SectorID: "sector-2"}
	others, err := f.svc.ListForActor(context.Background(), stranger)
	if err != nil {
		t.Fatalf("stranger list: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("stranger sees %d, want 0", len(others))
	}

	point := &userdomain.User{ID: "p", Role: rbac.RoleGtcPoint}
	if _, err := f.svc.ListForActor(context.Background(), point); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("point err = %v, want unauthorized", err)
	}
}
