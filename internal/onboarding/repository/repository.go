package repository

import (
	"context"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/onboarding/domain"
	pointdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/point/domain"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// SubmitParams carries the applicant-provided fields persisted on submission.
type SubmitParams struct {
	OnboardingID string
	Name         string
	Phone        string
	Address      string

	SignaturePath string
	SignatureMime string

	// When ReplaceServices is set the prior selection is replaced wholesale
	// with ServiceIDs, even if ServiceIDs is empty.
	ReplaceServices bool
	ServiceIDs      []string
}

// ApproveParams carries everything the approval transaction writes.
type ApproveParams struct {
	OnboardingID string
	// Point is upserted by email inside the transaction; its ID field is
	// overwritten with the persisted id.
	Point *pointdomain.GtcPoint
	// ServiceIDs are linked to the point as ENABLED.
	ServiceIDs []string

	RegistrationToken          string
	RegistrationTokenExpiresAt time.Time
}

// CompleteParams carries the registration-completion writes.
type CompleteParams struct {
	OnboardingID string
	User         *userdomain.User
}

// Repository defines persistence for point onboardings. Submit, Approve, and
// Complete bundle their statements in one transaction with an optimistic
// status guard; they return false when the guard failed.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Onboarding, error)
	GetByToken(ctx context.Context, onboardingToken string) (*domain.Onboarding, error)
	// Create persists the DRAFT row together with its service selection.
	Create(ctx context.Context, o *domain.Onboarding, serviceIDs []string) error
	ListAll(ctx context.Context) ([]*domain.Onboarding, error)
	ListBySector(ctx context.Context, sectorID string) ([]*domain.Onboarding, error)
	ListServiceIDs(ctx context.Context, onboardingID string) ([]string, error)

	// Submit writes the applicant fields and moves DRAFT to SUBMITTED.
	Submit(ctx context.Context, p SubmitParams) (bool, error)
	// Approve upserts the point, enables the service links, stores the
	// registration token, and moves SUBMITTED to APPROVED.
	Approve(ctx context.Context, p ApproveParams) (bool, error)
	// Decline moves SUBMITTED to DECLINED.
	Decline(ctx context.Context, id string) (bool, error)
	// Complete creates the point user and moves APPROVED to COMPLETED.
	Complete(ctx context.Context, p CompleteParams) (bool, error)
}
