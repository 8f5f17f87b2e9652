package domain

import (
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
)

// Status is a convention's lifecycle state. Forward-only; terminal states are immutable.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusUploaded Status = "UPLOADED"
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
)

// Action is an operation attempted against a convention.
type Action string

const (
	ActionUpload  Action = "UPLOAD"
	ActionApprove Action = "APPROVE"
	ActionDecline Action = "DECLINE"
	ActionDelete  Action = "DELETE"
)

// transitions is the single source of truth for the convention lifecycle.
// An UPLOAD on an already-UPLOADED convention is legal but does not advance,
// which is what keeps the uploaded-notification from firing twice.
var transitions = map[Status]map[Action]Status{
	StatusNew: {
		ActionUpload:  StatusUploaded,
		ActionApprove: StatusApproved,
		ActionDecline: StatusDeclined,
		ActionDelete:  StatusNew, // removal allowed; no successor state
	},
	StatusUploaded: {
		ActionUpload:  StatusUploaded,
		ActionApprove: StatusApproved,
		ActionDecline: StatusDeclined,
	},
	StatusApproved: {},
	StatusDeclined: {},
}

// Transition returns the state after applying action in from, or a ConflictError
// when the pair is not in the table.
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", apperr.Conflictf("convention in status %s does not allow %s", from, action)
	}
	return to, nil
}

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined
}

// Convention tracks a point's document-signing agreement lifecycle.
type Convention struct {
	ID               string
	GtcPointID       string
	SectorID         string
	Status           Status
	InternalSalesRep string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DocumentKind classifies an attached document.
type DocumentKind string

const DocumentKindSigned DocumentKind = "SIGNED"

// Document is one file attached to a convention. Immutable once created;
// deletable only as part of convention deletion.
type Document struct {
	ID           string
	ConventionID string
	Kind         DocumentKind
	StoredName   string
	RelativePath string
	Mime         string
	Size         int64
	Checksum     string
	UploadedBy   string
	CreatedAt    time.Time
}
