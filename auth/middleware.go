package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/adeilh/go-rakh-starter/apperr"
)

// Middleware is a request guard: it extracts the bearer token, runs a Stage
// over it and hands the enriched request on, or rejects it.
type Middleware struct {
	stage     Stage
	extractor TokenExtractor
	skip      func(*http.Request) bool
	reject    func(http.ResponseWriter, *http.Request, error)
	reason    string
}

func NewMiddleware(stage Stage, opts ...MiddlewareOption) (*Middleware, error) {
	if stage == nil {
		return nil, errors.New("auth: middleware requires a stage")
	}
	m := &Middleware{
		stage:     stage,
		extractor: BearerTokenExtractor(),
		skip:      never,
		reject:    writeRejection,
		reason:    ReasonUnauthorized,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// ClaimsGuard rejects requests whose token does not verify and stores Claims
// for the handler.
func ClaimsGuard(v *Verifier, opts ...MiddlewareOption) (*Middleware, error) {
	if v == nil {
		return nil, errors.New("auth: claims guard requires a verifier")
	}
	return NewMiddleware(v.Stage(), append([]MiddlewareOption{WithRejectReason(ReasonUnauthorized)}, opts...)...)
}

// ProfileGuard resolves the caller's UserProfile and stores it for the
// handler.
func ProfileGuard(p *ProfileResolver, opts ...MiddlewareOption) (*Middleware, error) {
	if p == nil {
		return nil, errors.New("auth: profile guard requires a resolver")
	}
	return NewMiddleware(p.Stage(), append([]MiddlewareOption{WithRejectReason(ReasonInvalidBearer)}, opts...)...)
}

// BearerGuard only extracts the token; nothing is verified. Use it for
// handlers that forward the caller's token upstream.
func BearerGuard(opts ...MiddlewareOption) (*Middleware, error) {
	stage := func(ctx context.Context, raw string) (context.Context, error) {
		return WithBearerToken(ctx, raw), nil
	}
	return NewMiddleware(stage, append([]MiddlewareOption{WithRejectReason(ReasonInvalidBearer)}, opts...)...)
}

// SecretGuard verifies HS256 tokens against a pre-shared secret.
func SecretGuard(s *SecretVerifier, opts ...MiddlewareOption) (*Middleware, error) {
	if s == nil {
		return nil, errors.New("auth: secret guard requires a verifier")
	}
	return NewMiddleware(s.Stage(), append([]MiddlewareOption{WithRejectReason(ReasonUnauthorized)}, opts...)...)
}

// Authenticate returns r with the stage's context, or an *apperr.Error.
func (m *Middleware) Authenticate(r *http.Request) (*http.Request, error) {
	if m.skip(r) {
		return r, nil
	}
	raw, err := m.extractor(r)
	if err != nil {
		return nil, apperr.UnauthorizedCause(m.reason, err)
	}
	ctx, err := m.stage(r.Context(), raw)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.UnauthorizedCause(m.reason, err)
	}
	return r.WithContext(ctx), nil
}

// Handler wraps next for plain net/http servers.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m == nil {
		panic("auth: middleware is nil")
	}
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := m.Authenticate(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, req)
	})
}
