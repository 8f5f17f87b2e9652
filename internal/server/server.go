// Package server exposes the workflow core over HTTP JSON. Handlers stay
// thin: decode, call the service, map the error taxonomy to a status code.
package server

import (
	"context"
	"net/http"

	conventiondomain "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/domain"
	conventionservice "github.com/enayetsyl/gtc-deploy-sub000/internal/convention/service"
	notifrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/repository"
	onboardingdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/domain"
	onboardingservice "github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/service"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/realtime"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/token"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// ConventionWorkflow is the convention service surface the handlers call.
type ConventionWorkflow interface {
	Create(ctx context.Context, actor *userdomain.User, gtcPointID, sectorID string) (*conventiondomain.Convention, error)
	Upload(ctx context.Context, actor *userdomain.User, conventionID string, up conventionservice.Upload) (*conventiondomain.Document, error)
	Decide(ctx context.Context, actor *userdomain.User, conventionID string, decision conventionservice.Decision, internalSalesRep string) (*conventiondomain.Convention, error)
	Delete(ctx context.Context, actor *userdomain.User, conventionID string) error
	Get(ctx context.Context, actor *userdomain.User, conventionID string) (*conventiondomain.Convention, error)
	ListForActor(ctx context.Context, actor *userdomain.User) ([]*conventiondomain.Convention, error)
}

// OnboardingWorkflow is the onboarding service surface the handlers call.
type OnboardingWorkflow interface {
	CreateLink(ctx context.Context, actor *userdomain.User, in onboardingservice.CreateLinkInput) (*onboardingdomain.Onboarding, error)
	Submit(ctx context.Context, in onboardingservice.SubmitInput) (*onboardingdomain.Onboarding, error)
	Approve(ctx context.Context, actor *userdomain.User, onboardingID string) (*onboardingdomain.Onboarding, error)
	Decline(ctx context.Context, actor *userdomain.User, onboardingID string) (*onboardingdomain.Onboarding, error)
	CompleteRegistration(ctx context.Context, registrationToken, password string) (*userdomain.User, error)
	Get(ctx context.Context, actor *userdomain.User, onboardingID string) (*onboardingdomain.Onboarding, error)
	ListForActor(ctx context.Context, actor *userdomain.User) ([]*onboardingdomain.Onboarding, error)
}

// Credentials is the token authority surface the auth handlers call.
type Credentials interface {
	IssueAccess(userID, email string, role rbac.Role) (string, error)
	VerifyAccess(tokenString string) (*token.AccessClaims, error)
	IssueRefresh(ctx context.Context, userID string) (tokenString, jti string, err error)
	VerifyRefresh(ctx context.Context, tokenString string) (*token.Grant, error)
	Rotate(ctx context.Context, tokenString string) (newToken, newJTI string, err error)
	Revoke(ctx context.Context, jti string) error
}

// Directory resolves users for authentication.
type Directory interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// PasswordVerifier checks a login password against its stored hash.
type PasswordVerifier interface {
	Compare(hash string, password []byte) error
}

// NotificationReader acknowledges a user's notifications.
type NotificationReader interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Subscriber is the read side of the realtime hub.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) <-chan realtime.Event
}

// Server holds the handler dependencies.
type Server struct {
	credentials   Credentials
	directory     Directory
	passwords     PasswordVerifier
	conventions   ConventionWorkflow
	onboardings   OnboardingWorkflow
	notifications NotificationReader
	notifRepo     notifrepo.Repository
	hub           Subscriber
}

// New returns a Server with the given collaborators.
func New(
	credentials Credentials,
	directory Directory,
	passwords PasswordVerifier,
	conventions ConventionWorkflow,
	onboardings OnboardingWorkflow,
	notifications NotificationReader,
	notifRepo notifrepo.Repository,
	hub Subscriber,
) *Server {
	return &Server{
		credentials:   credentials,
		directory:     directory,
		passwords:     passwords,
		conventions:   conventions,
		onboardings:   onboardings,
		notifications: notifications,
		notifRepo:     notifRepo,
		hub:           hub,
	}
}

// Routes returns the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.Handle("GET /api/me", s.authenticate(s.handleMe))

	mux.Handle("POST /api/conventions", s.authenticate(s.handleConventionCreate))
	mux.Handle("GET /api/conventions", s.authenticate(s.handleConventionList))
	mux.Handle("GET /api/conventions/{id}", s.authenticate(s.handleConventionGet))
	mux.Handle("POST /api/conventions/{id}/documents", s.authenticate(s.handleConventionUpload))
	mux.Handle("POST /api/conventions/{id}/decision", s.authenticate(s.handleConventionDecide))
	mux.Handle("DELETE /api/conventions/{id}", s.authenticate(s.handleConventionDelete))

	mux.Handle("POST /api/onboardings", s.authenticate(s.handleOnboardingCreateLink))
	mux.Handle("GET /api/onboardings", s.authenticate(s.handleOnboardingList))
	mux.Handle("GET /api/onboardings/{id}", s.authenticate(s.handleOnboardingGet))
	mux.Handle("POST /api/onboardings/{id}/approve", s.authenticate(s.handleOnboardingApprove))
	mux.Handle("POST /api/onboardings/{id}/decline", s.authenticate(s.handleOnboardingDecline))
	mux.HandleFunc("POST /api/public/onboarding/submit", s.handleOnboardingSubmit)
	mux.HandleFunc("POST /api/public/register", s.handleRegister)

	mux.Handle("GET /api/notifications", s.authenticate(s.handleNotificationList))
	mux.Handle("POST /api/notifications/{id}/read", s.authenticate(s.handleNotificationRead))
	mux.Handle("GET /api/events", s.authenticate(s.handleEvents))

	return mux
}
