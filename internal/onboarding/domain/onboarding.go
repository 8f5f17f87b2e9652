package domain

import (
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
)

// Status is an onboarding's lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusCompleted Status = "COMPLETED"
)

// Action is an operation attempted against an onboarding.
type Action string

const (
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionDecline  Action = "DECLINE"
	ActionComplete Action = "COMPLETE"
)

// transitions is the single source of truth for the onboarding lifecycle.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionDecline: StatusDeclined,
	},
	StatusApproved: {
		ActionComplete: StatusCompleted,
	},
	StatusDeclined:  {},
	StatusCompleted: {},
}

// Transition returns the state after applying action in from, or a ConflictError
// when the pair is not in the table.
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", apperr.Conflictf("onboarding in status %s does not allow %s", from, action)
	}
	return to, nil
}

// Terminal reports whether s admits no further action.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusCompleted
}

// Onboarding is a prospective point's application. Approval materializes a
// GtcPoint; completion materializes a User bound to it.
type Onboarding struct {
	ID         string
	SectorID   string
	Email      string
	Name       string
	Phone      string
	Address    string
	Status     Status
	GtcPointID string

	// Opaque link token mailed to the applicant at creation.
	OnboardingToken          string
	OnboardingTokenExpiresAt time.Time

	// Signed registration grant, set at approval.
	RegistrationToken          string
	RegistrationTokenExpiresAt time.Time

	SignaturePath string
	SignatureMime string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenExpired reports whether the onboarding link token is past its expiry.
func (o *Onboarding) TokenExpired(now time.Time) bool {
	return now.After(o.OnboardingTokenExpiresAt)
}
