package auth

import "context"

type contextKey int

const (
	claimsKey contextKey = iota
	profileKey
	bearerKey
)

// WithClaims returns ctx carrying c.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	if ctx == nil {
		return Claims{}, false
	}
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// WithProfile returns ctx carrying p.
func WithProfile(ctx context.Context, p UserProfile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

func ProfileFromContext(ctx context.Context) (UserProfile, bool) {
	if ctx == nil {
		return UserProfile{}, false
	}
	p, ok := ctx.Value(profileKey).(UserProfile)
	return p, ok
}

// WithBearerToken returns ctx carrying the raw, unverified token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerTokenFromContext returns the raw token stored by the bearer guard.
// The token has not been verified.
func BearerTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	t, ok := ctx.Value(bearerKey).(string)
	return t, ok && t != ""
}
