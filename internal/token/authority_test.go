package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/security"
)

func newTestAuthority(t *testing.T, store GrantStore) *Authority {
	t.Helper()
	signer, pub, err := security.TestKeyPair()
	if err != nil {
		t.Fatalf("TestKeyPair: %v", err)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return NewAuthority(signer, pub, "gtc-deploy", store, 15*time.Minute, 7*24*time.Hour)
}

func TestAccessRoundTrip(t *testing.T) {
	a := newTestAuthority(t, nil)

	tok, err := a.IssueAccess("u1", "owner@example.com", rbac.RoleSectorOwner)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := a.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "owner@example.com" || claims.Role != rbac.RoleSectorOwner {
		t.Errorf("claims = {sub:%q email:%q role:%q}", claims.Subject, claims.Email, claims.Role)
	}
}

func TestAccessTamperedSignatureFails(t *testing.T) {
	a := newTestAuthority(t, nil)

	tok, err := a.IssueAccess("u1", "a@example.com", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := a.VerifyAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAccess(tampered) = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessGarbage(t *testing.T) {
	a := newTestAuthority(t, nil)
	if _, err := a.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAccess(garbage) = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshRevocation(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t, nil)

	tok, jti, err := a.IssueRefresh(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	g, err := a.VerifyRefresh(ctx, tok)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if g.UserID != "u1" || g.JTI != jti {
		t.Errorf("grant = %+v", g)
	}

	if err := a.Revoke(ctx, jti); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// The signature is still valid; only the live grant decides.
	if _, err := a.VerifyRefresh(ctx, tok); !errors.Is(err, apperr.ErrRevokedToken) {
		t.Errorf("VerifyRefresh after revoke = %v, want ErrRevokedToken", err)
	}
	// Idempotent revoke.
	if err := a.Revoke(ctx, jti); err != nil {
		t.Errorf("second Revoke: %v", err)
	}
}

func TestRotateConsumesOldGrant(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t, nil)

	oldTok, oldJTI, err := a.IssueRefresh(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	newTok, newJTI, err := a.Rotate(ctx, oldTok)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if newJTI == oldJTI {
		t.Error("rotation reused the old jti")
	}
	if _, err := a.VerifyRefresh(ctx, newTok); err != nil {
		t.Errorf("VerifyRefresh(new): %v", err)
	}
	// Second use of the consumed token loses.
	if _, _, err := a.Rotate(ctx, oldTok); !errors.Is(err, apperr.ErrRevokedToken) {
		t.Errorf("Rotate(old) after rotation = %v, want ErrRevokedToken", err)
	}
}

func TestInviteKindMismatch(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t, nil)

	refreshTok, _, err := a.IssueRefresh(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, err := a.VerifyInvite(ctx, refreshTok); !errors.Is(err, apperr.ErrInvalidInviteKind) {
		t.Errorf("VerifyInvite(refresh token) = %v, want ErrInvalidInviteKind", err)
	}

	inviteTok, jti, err := a.IssueInvite(ctx, "u1")
	if err != nil {
		t.Fatalf("IssueInvite: %v", err)
	}
	g, err := a.VerifyInvite(ctx, inviteTok)
	if err != nil {
		t.Fatalf("VerifyInvite: %v", err)
	}
	if g.Kind != KindInvite || g.JTI != jti {
		t.Errorf("grant = %+v", g)
	}
	if err := a.RevokeInvite(ctx, jti); err != nil {
		t.Fatalf("RevokeInvite: %v", err)
	}
	if _, err := a.VerifyInvite(ctx, inviteTok); !errors.Is(err, apperr.ErrRevokedToken) {
		t.Errorf("VerifyInvite after revoke = %v, want ErrRevokedToken", err)
	}
}

func TestRegistrationCarriesOnboardingRef(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthority(t, nil)

	tok, _, err := a.IssueRegistration(ctx, "applicant@example.com", "onb-1")
	if err != nil {
		t.Fatalf("IssueRegistration: %v", err)
	}
	g, err := a.VerifyRegistration(ctx, tok)
	if err != nil {
		t.Fatalf("VerifyRegistration: %v", err)
	}
	if g.Ref != "onb-1" {
		t.Errorf("Ref = %q, want onb-1", g.Ref)
	}
	// A registration token is not an invite token.
	if _, err := a.VerifyInvite(ctx, tok); !errors.Is(err, apperr.ErrInvalidInviteKind) {
		t.Errorf("VerifyInvite(registration token) = %v, want ErrInvalidInviteKind", err)
	}
}
