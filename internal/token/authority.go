package token

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
)

// ErrInvalidToken is returned when a token is malformed, carries a bad
// signature, or (for access tokens) is expired. Boundary code should collapse
// all token verification failures to one generic signal; the finer-grained
// apperr sentinels exist for logs and tests.
var ErrInvalidToken = errors.New("invalid token")

// Default credential lifetimes.
const (
	DefaultAccessTTL       = 15 * time.Minute
	DefaultRefreshTTL      = 7 * 24 * time.Hour
	DefaultInviteTTL       = 7 * 24 * time.Hour
	DefaultRegistrationTTL = 7 * 24 * time.Hour
)

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

// GrantClaims holds JWT claims for refresh, invite, and registration tokens.
// The jti (RegisteredClaims.ID) binds the token to its server-side grant.
type GrantClaims struct {
	jwt.RegisteredClaims
	Kind Kind   `json:"kind"`
	Ref  string `json:"ref,omitempty"`
}

// Authority issues and verifies all credentials: stateless access tokens and
// stateful refresh/invite/registration grants. It signs with RS256 or ES256
// depending on the key type. The Authority exclusively owns grant lifecycle.
type Authority struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	store      GrantStore

	accessTTL       time.Duration
	refreshTTL      time.Duration
	inviteTTL       time.Duration
	registrationTTL time.Duration
}

// NewAuthority returns an Authority signing with privateKey and recording
// grants in store. Zero TTLs fall back to the defaults.
func NewAuthority(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer string, store GrantStore, accessTTL, refreshTTL time.Duration) *Authority {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Authority{
		privateKey:      privateKey,
		publicKey:       publicKey,
		issuer:          issuer,
		store:           store,
		accessTTL:       accessTTL,
		refreshTTL:      refreshTTL,
		inviteTTL:       DefaultInviteTTL,
		registrationTTL: DefaultRegistrationTTL,
	}
}

// IssueAccess signs a short-lived access token embedding subject, email, and
// role. No server-side state is created.
func (a *Authority) IssueAccess(userID, email string, role rbac.Role) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
		},
		Email: email,
		Role:  role,
	}
	return a.sign(claims)
}

// VerifyAccess checks signature and expiry and returns the claims.
// Any failure, including expiry, is ErrInvalidToken.
func (a *Authority) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := a.parse(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRefresh creates a refresh session: a random jti recorded against the
// user with the refresh TTL, and a signed token embedding that jti.
func (a *Authority) IssueRefresh(ctx context.Context, userID string) (tokenString, jti string, err error) {
	return a.issueGrant(ctx, KindRefresh, userID, "", a.refreshTTL)
}

// VerifyRefresh checks signature and expiry, then checks the grant still
// exists. A structurally valid token without a live grant fails with
// ErrRevokedToken; signature validity alone is never sufficient.
func (a *Authority) VerifyRefresh(ctx context.Context, tokenString string) (*Grant, error) {
	return a.verifyGrant(ctx, tokenString, KindRefresh)
}

// Rotate revokes the presented refresh token's grant and issues a fresh one
// for the same user. The old grant is consumed atomically (TakeOnce), so of
// two concurrent rotations with the same token exactly one succeeds and the
// other observes ErrRevokedToken.
func (a *Authority) Rotate(ctx context.Context, tokenString string) (newToken, newJTI string, err error) {
	claims, err := a.parseGrant(tokenString, KindRefresh)
	if err != nil {
		return "", "", err
	}
	g, err := a.store.TakeOnce(ctx, claims.ID)
	if err != nil {
		return "", "", err
	}
	if g == nil || g.Kind != KindRefresh {
		return "", "", apperr.ErrRevokedToken
	}
	return a.IssueRefresh(ctx, g.UserID)
}

// Revoke deletes the grant for jti. Idempotent.
func (a *Authority) Revoke(ctx context.Context, jti string) error {
	return a.store.Delete(ctx, jti)
}

// IssueInvite creates a single-purpose invite grant for account activation.
func (a *Authority) IssueInvite(ctx context.Context, userID string) (tokenString, jti string, err error) {
	return a.issueGrant(ctx, KindInvite, userID, "", a.inviteTTL)
}

// VerifyInvite verifies an invite token. A token of a different kind fails
// with ErrInvalidInviteKind, distinct from expiry and revocation failures.
func (a *Authority) VerifyInvite(ctx context.Context, tokenString string) (*Grant, error) {
	return a.verifyGrant(ctx, tokenString, KindInvite)
}

// RevokeInvite deletes the invite grant for jti. Idempotent.
func (a *Authority) RevokeInvite(ctx context.Context, jti string) error {
	return a.store.Delete(ctx, jti)
}

// IssueRegistration creates a registration grant bound to an onboarding
// record. VerifyRegistration returns the onboarding id as Grant.Ref.
func (a *Authority) IssueRegistration(ctx context.Context, userRef, onboardingID string) (tokenString, jti string, err error) {
	return a.issueGrant(ctx, KindRegistration, userRef, onboardingID, a.registrationTTL)
}

// VerifyRegistration verifies a registration token and returns its grant.
func (a *Authority) VerifyRegistration(ctx context.Context, tokenString string) (*Grant, error) {
	return a.verifyGrant(ctx, tokenString, KindRegistration)
}

func (a *Authority) issueGrant(ctx context.Context, kind Kind, userID, ref string, ttl time.Duration) (tokenString, jti string, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := GrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind: kind,
		Ref:  ref,
	}
	tokenString, err = a.sign(claims)
	if err != nil {
		return "", "", err
	}
	if err := a.store.Put(ctx, &Grant{JTI: jti, Kind: kind, UserID: userID, Ref: ref, ExpiresAt: expiresAt}); err != nil {
		return "", "", err
	}
	return tokenString, jti, nil
}

func (a *Authority) verifyGrant(ctx context.Context, tokenString string, want Kind) (*Grant, error) {
	claims, err := a.parseGrant(tokenString, want)
	if err != nil {
		return nil, err
	}
	g, err := a.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if g == nil || g.Kind != want {
		return nil, apperr.ErrRevokedToken
	}
	return g, nil
}

// parseGrant validates signature, expiry, issuer, and kind tag, without
// consulting the store.
func (a *Authority) parseGrant(tokenString string, want Kind) (*GrantClaims, error) {
	claims := &GrantClaims{}
	if err := a.parse(tokenString, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.Kind != want {
		return nil, apperr.ErrInvalidInviteKind
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Authority) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return a.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return a.publicKey, nil
		}
		return nil, ErrInvalidToken
	}, jwt.WithIssuer(a.issuer))
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (a *Authority) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch a.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(a.privateKey)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
