package credential

import (
	"context"
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the raw access token the client currently holds.
type TokenSource interface {
	// Token returns the current token, or "" when none is held.
	Token(ctx context.Context) (string, error)
	// Clear discards the held token. Safe to call when none is held.
	Clear(ctx context.Context) error
}

// JWTProvider validates the held access token (RS256 or ES256) against a
// public key and reports the owning user. An expired or malformed token is
// reported as no credential, not as an error.
type JWTProvider struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
	source    TokenSource
}

// NewJWTProvider returns a Provider that validates tokens from source with the
// given public key, issuer, and audience.
func NewJWTProvider(publicKey crypto.PublicKey, issuer, audience string, source TokenSource) *JWTProvider {
	return &JWTProvider{publicKey: publicKey, issuer: issuer, audience: audience, source: source}
}

// Current returns the credential for the held token, or (nil, nil) when the
// token is absent, expired, or fails validation.
func (p *JWTProvider) Current(ctx context.Context) (*Credential, error) {
	raw, err := p.source.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential: read token: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) { return p.publicKey, nil },
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Any validation failure means there is no usable credential.
		return nil, nil
	}
	if claims.Subject == "" {
		return nil, nil
	}
	return &Credential{UserID: claims.Subject}, nil
}

// SignOut discards the held token.
func (p *JWTProvider) SignOut(ctx context.Context) error {
	if err := p.source.Clear(ctx); err != nil {
		return fmt.Errorf("credential: clear token: %w", err)
	}
	return nil
}

var _ Provider = (*JWTProvider)(nil)
