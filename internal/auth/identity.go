package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims read from a provider-issued ID token.
type IdentityClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IdentityVerifier verifies editor session tokens.
type IdentityVerifier interface {
	VerifyToken(tokenString string) (*IdentityClaims, error)
	Close() error
}

// IdentityOptions pins tokens to this site's identity provider project.
// Empty fields are not checked.
type IdentityOptions struct {
	Issuer   string
	Audience string
}

func (o IdentityOptions) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if o.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(o.Issuer))
	}
	if o.Audience != "" {
		opts = append(opts, jwt.WithAudience(o.Audience))
	}
	return opts
}

// JWKSVerifier verifies ID tokens against the identity provider's published keys.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	options []jwt.ParserOption
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWKSVerifier fetches and caches the key set at jwksURL. Keys are refreshed
// in the background until Close is called.
func NewJWKSVerifier(jwksURL string, opts IdentityOptions, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	if opts.Issuer == "" || opts.Audience == "" {
		logger.Warn("identity verifier accepts tokens for any issuer or audience; set IDENTITY_ISSUER and IDENTITY_AUDIENCE")
	}
	logger.Info("identity verifier initialized", "jwks_url", jwksURL, "issuer", opts.Issuer, "audience", opts.Audience)
	return &JWKSVerifier{keyfunc: jwks.Keyfunc, options: opts.parserOptions(), cancel: cancel, logger: logger}, nil
}

// NewKeyfuncVerifier builds a verifier around an existing key lookup.
func NewKeyfuncVerifier(kf jwt.Keyfunc, opts IdentityOptions, logger *slog.Logger) *JWKSVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &JWKSVerifier{keyfunc: kf, options: opts.parserOptions(), logger: logger}
}

// VerifyToken validates the signature, expiry, and the configured issuer and
// audience of an ID token. Only RS256 and ES256 are accepted and the subject
// claim is required.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, v.options...)
	if err != nil || !token.Valid {
		v.logger.Debug("identity token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		v.logger.Debug("identity token missing subject claim")
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return claims, nil
}

// Close stops the background key refresh.
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}

// Allowlist restricts editor sessions to known subjects. An empty allowlist admits everyone.
type Allowlist map[string]struct{}

// NewAllowlist builds an allowlist from subjects.
func NewAllowlist(subjects []string) Allowlist {
	out := make(Allowlist, len(subjects))
	for _, s := range subjects {
		out[s] = struct{}{}
	}
	return out
}

// Allows reports whether subject may edit content.
func (a Allowlist) Allows(subject string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[subject]
	return ok
}
