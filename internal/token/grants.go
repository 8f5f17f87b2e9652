// Package token implements the session/token authority: short-lived access
// tokens, server-tracked refresh sessions, and single-use invite and
// registration grants.
package token

import (
	"context"
	"time"
)

// Kind tags a grant with its single purpose. Verification rejects a grant
// presented for a different purpose.
type Kind string

const (
	KindRefresh      Kind = "refresh"
	KindInvite       Kind = "invite"
	KindRegistration Kind = "registration"
)

// Grant is the server-side record backing a refresh, invite, or registration
// token. A token whose grant is gone is revoked regardless of its signature.
type Grant struct {
	JTI       string
	Kind      Kind
	UserID    string
	Ref       string // registration grants: the onboarding record they unlock
	ExpiresAt time.Time
}

// GrantStore persists grants keyed by jti. Production uses the Postgres
// implementation; tests use MemoryStore. A store without native TTL expiry
// must be swept periodically, or the existence checks in VerifyRefresh and
// VerifyInvite stop being trustworthy.
type GrantStore interface {
	// Put records the grant until its expiry.
	Put(ctx context.Context, g *Grant) error
	// Get returns the grant for jti, or nil if missing or expired.
	Get(ctx context.Context, jti string) (*Grant, error)
	// Delete removes the grant. Idempotent: deleting a missing jti is not an error.
	Delete(ctx context.Context, jti string) error
	// TakeOnce atomically fetches and deletes the grant for jti. Returns nil
	// if missing or expired. Rotation uses it so two concurrent callers of the
	// same refresh token cannot both succeed.
	TakeOnce(ctx context.Context, jti string) (*Grant, error)
}
