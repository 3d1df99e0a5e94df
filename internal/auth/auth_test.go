package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestAdminTokens_IssueAndVerify(t *testing.T) {
	tokens := NewAdminTokens(testSecret, 0)

	signed, expires, err := tokens.Issue()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), expires, time.Minute)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, claims.Subject)
	assert.Equal(t, AdminIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestAdminTokens_RejectsInvalidTokens(t *testing.T) {
	tokens := NewAdminTokens(testSecret, time.Hour)
	signed, _, err := tokens.Issue()
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewAdminTokens("another-secret-key-that-is-long-enough", time.Hour).Verify(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewAdminTokens(testSecret, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Issuer:    AdminIssuer,
			Subject:   AdminSubject,
			Audience:  jwt.ClaimStrings{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tokens.Verify(forged)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Issuer:   AdminIssuer,
			Subject:  AdminSubject,
			Audience: jwt.ClaimStrings{AdminAudience},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tokens.Verify(forged)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAdminTokens_NotConfigured(t *testing.T) {
	_, _, err := NewAdminTokens("", time.Hour).Issue()
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilTokens *AdminTokens
	_, err = nilTokens.Verify("x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}

func TestCheckPassword(t *testing.T) {
	assert.True(t, CheckPassword("hunter2", "hunter2", ""))
	assert.False(t, CheckPassword("hunter3", "hunter2", ""))
	assert.False(t, CheckPassword("", "", ""))
	assert.False(t, CheckPassword("anything", "", ""))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", "ignored", string(hash)))
	assert.False(t, CheckPassword("ignored", "ignored", string(hash)))
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func identityClaims(sub string) *IdentityClaims {
	return &IdentityClaims{
		Email: "editor@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestJWKSVerifier_WithKeySet(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": "editor-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	kf, err := keyfunc.NewJWKSetJSON(set)
	require.NoError(t, err)
	verifier := NewKeyfuncVerifier(kf.Keyfunc, IdentityOptions{}, nil)
	defer verifier.Close()

	claims, err := verifier.VerifyToken(signRS256(t, key, "editor-key", identityClaims("user-123")))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "editor@example.com", claims.Email)

	_, err = verifier.VerifyToken(signRS256(t, key, "unknown-key", identityClaims("user-123")))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJWKSVerifier_RejectsBadTokens(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	verifier := NewKeyfuncVerifier(func(t *jwt.Token) (any, error) {
		if t.Method.Alg() == "ES256" {
			return &ecKey.PublicKey, nil
		}
		return &rsaKey.PublicKey, nil
	}, IdentityOptions{}, nil)

	t.Run("ES256 accepted", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, identityClaims("user-es")).SignedString(ecKey)
		require.NoError(t, err)
		claims, err := verifier.VerifyToken(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-es", claims.Subject)
	})

	t.Run("HS256 rejected", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims("user-1")).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = verifier.VerifyToken(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := verifier.VerifyToken(signRS256(t, rsaKey, "", identityClaims("")))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		claims := identityClaims("user-1")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := verifier.VerifyToken(signRS256(t, rsaKey, "", claims))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestJWKSVerifier_PinsIssuerAndAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := NewKeyfuncVerifier(func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, IdentityOptions{Issuer: "https://id.example.com/folio", Audience: "folio"}, nil)

	pinned := func(iss string, aud ...string) *IdentityClaims {
		claims := identityClaims("editor-1")
		claims.Issuer = iss
		claims.Audience = aud
		return claims
	}

	claims, err := verifier.VerifyToken(signRS256(t, key, "", pinned("https://id.example.com/folio", "folio")))
	require.NoError(t, err)
	assert.Equal(t, "editor-1", claims.Subject)

	tests := []struct {
		name   string
		claims *IdentityClaims
	}{
		{"other project", pinned("https://other-project.example", "some-other-app")},
		{"wrong issuer", pinned("https://other-project.example", "folio")},
		{"wrong audience", pinned("https://id.example.com/folio", "some-other-app")},
		{"missing issuer and audience", pinned("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyToken(signRS256(t, key, "", tt.claims))
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestNewJWKSVerifier_RequiresURL(t *testing.T) {
	_, err := NewJWKSVerifier("", IdentityOptions{}, nil)
	assert.Error(t, err)
}

func TestAllowlist(t *testing.T) {
	assert.True(t, NewAllowlist(nil).Allows("anyone"))

	list := NewAllowlist([]string{"user-1"})
	assert.True(t, list.Allows("user-1"))
	assert.False(t, list.Allows("user-2"))
}
