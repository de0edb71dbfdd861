package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adeilh/go-rakh-starter/apperr"
)

// SecretVerifier decodes HS256 tokens signed with a pre-shared secret. Only
// the signature and expiry are checked; issuer and audience are ignored.
type SecretVerifier struct {
	secret []byte
	parser *jwt.Parser
}

type secretClaims struct {
	jwt.RegisteredClaims
	ACR string `json:"acr,omitempty"`
}

// NewSecretVerifier returns a verifier for secret. now may be nil.
func NewSecretVerifier(secret []byte, leeway time.Duration, now func() time.Time) (*SecretVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: secret verifier requires a secret")
	}
	if leeway <= 0 {
		leeway = DefaultLeeway
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}
	return &SecretVerifier{
		secret: append([]byte(nil), secret...),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify returns the token's claims. Every failure is reported as
// Unauthorized.
func (s *SecretVerifier) Verify(raw string) (Claims, error) {
	var sc secretClaims
	_, err := s.parser.ParseWithClaims(raw, &sc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		verifications.WithLabelValues("secret_invalid").Inc()
		return Claims{}, apperr.UnauthorizedCause(ReasonUnauthorized, err)
	}
	verifications.WithLabelValues("secret_ok").Inc()

	c := Claims{
		Issuer:  sc.Issuer,
		Subject: sc.Subject,
		ACR:     sc.ACR,
	}
	if len(sc.Audience) > 0 {
		c.Audience = sc.Audience[0]
	}
	if sc.ExpiresAt != nil {
		c.ExpiresAt = sc.ExpiresAt.Unix()
	}
	if sc.IssuedAt != nil {
		c.IssuedAt = sc.IssuedAt.Unix()
	}
	return c, nil
}

// Stage adapts Verify to a guard stage that stores Claims in the context.
func (s *SecretVerifier) Stage() Stage {
	return func(ctx context.Context, raw string) (context.Context, error) {
		claims, err := s.Verify(raw)
		if err != nil {
			return nil, err
		}
		return WithClaims(ctx, claims), nil
	}
}
