// Package auth verifies OAuth2 bearer tokens against a remote JWKS, resolves
// caller profiles from the userinfo endpoint, and exposes both as request
// guards.
package auth

import (
	"context"
	"time"
)

// Default leeway applied to time-based claims.
const DefaultLeeway = 60 * time.Second

// Claims is the verified payload of an access token.
type Claims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	ACR       string `json:"acr"`
}

// UserProfile is the subset of the userinfo response the service keeps.
type UserProfile struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Subject       string `json:"sub"`
}

// Stage turns a raw bearer token into a context carrying the caller's
// identity, or rejects it.
type Stage func(ctx context.Context, raw string) (context.Context, error)
