package domain

import "time"

// Type enumerates the business event kinds a notification can carry.
type Type string

const (
	TypeConventionUploaded  Type = "CONVENTION_UPLOADED"
	TypeConventionApproved  Type = "CONVENTION_APPROVED"
	TypeConventionDeclined  Type = "CONVENTION_DECLINED"
	TypeOnboardingSubmitted Type = "ONBOARDING_SUBMITTED"
	TypeOnboardingApproved  Type = "ONBOARDING_APPROVED"
	TypeOnboardingDeclined  Type = "ONBOARDING_DECLINED"
	TypeOnboardingCompleted Type = "ONBOARDING_COMPLETED"
	TypeWelcome             Type = "WELCOME"
	TypeGeneric             Type = "GENERIC"
)

// Notification is one persisted per-recipient record of a business event.
// Created once, mutated only by mark-read.
type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Subject   string
	Content   string
	Read      bool
	CreatedAt time.Time
}
