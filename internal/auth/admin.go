// Package auth issues and verifies the two kinds of bearer tokens the API accepts:
// admin tokens signed with the server secret, and editor ID tokens issued by the
// federated identity provider.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Admin token claims.
const (
	AdminIssuer   = "folio-admin"
	AdminAudience = "folio-admin-api"
	AdminSubject  = "admin"

	DefaultAdminTokenTTL = 8 * time.Hour
)

var (
	// ErrUnauthorized is returned for any token that fails verification.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured is returned when the signing secret is missing.
	ErrNotConfigured = errors.New("admin secrets not configured")
)

// AdminTokens issues and verifies HS256 admin tokens.
type AdminTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAdminTokens creates an issuer for secret. A non-positive ttl uses DefaultAdminTokenTTL.
func NewAdminTokens(secret string, ttl time.Duration) *AdminTokens {
	if ttl <= 0 {
		ttl = DefaultAdminTokenTTL
	}
	return &AdminTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a new admin token and returns it with its expiry.
func (a *AdminTokens) Issue() (string, time.Time, error) {
	if a == nil || len(a.secret) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}

	now := a.now()
	expires := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    AdminIssuer,
		Subject:   AdminSubject,
		Audience:  jwt.ClaimStrings{AdminAudience},
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, expiry, issuer and audience of an admin token.
func (a *AdminTokens) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	if a == nil || len(a.secret) == 0 {
		return nil, ErrNotConfigured
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(AdminIssuer),
		jwt.WithAudience(AdminAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject != AdminSubject {
		return nil, fmt.Errorf("%w: unexpected subject", ErrUnauthorized)
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
