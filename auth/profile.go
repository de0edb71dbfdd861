package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/cache"
	"github.com/adeilh/go-rakh-starter/httpx"
)

const (
	profileKeyPrefix = "user_info|"
	// ProfileTTL is how long a fetched profile stays cached.
	ProfileTTL = 24 * time.Hour
)

var validate = validator.New()

// userinfo is the wire form of the userinfo response. Every field must be
// present; email_verified may be false.
type userinfo struct {
	Email         *string `json:"email" validate:"required"`
	EmailVerified *bool   `json:"email_verified" validate:"required"`
	Subject       *string `json:"sub" validate:"required"`
}

// ProfileCacheKey returns the cache key for subject's profile.
func ProfileCacheKey(subject string) string { return profileKeyPrefix + subject }

// ProfileResolver looks up the caller's profile cache-aside, keyed by the
// verified subject. Misses are filled from the userinfo endpoint using the
// caller's own token.
type ProfileResolver struct {
	verifier *Verifier
	store    cache.Store
	client   *httpx.Client
	url      string
	ttl      time.Duration
}

func NewProfileResolver(verifier *Verifier, store cache.Store, client *httpx.Client, userinfoURL string) (*ProfileResolver, error) {
	if verifier == nil {
		return nil, errors.New("auth: profile resolver requires a verifier")
	}
	if store == nil {
		return nil, errors.New("auth: profile resolver requires a cache store")
	}
	if client == nil {
		client = httpx.NewClient()
	}
	return &ProfileResolver{
		verifier: verifier,
		store:    store,
		client:   client,
		url:      userinfoURL,
		ttl:      ProfileTTL,
	}, nil
}

// Resolve verifies raw and returns the profile of its subject. Verification
// errors are returned unchanged. A failed userinfo call is reported as an
// invalid bearer token and leaves the cache untouched.
func (p *ProfileResolver) Resolve(ctx context.Context, raw string) (UserProfile, Claims, error) {
	claims, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return UserProfile{}, Claims{}, err
	}

	entry := cache.Key(p.store, ProfileCacheKey(claims.Subject))
	var profile UserProfile
	hit, err := entry.Get(ctx, &profile)
	if err != nil {
		profileCacheRequests.WithLabelValues("error").Inc()
		return UserProfile{}, Claims{}, apperr.Internal(fmt.Errorf("auth: read cached profile: %w", err))
	}
	if hit {
		profileCacheRequests.WithLabelValues("hit").Inc()
		return profile, claims, nil
	}

	profileCacheRequests.WithLabelValues("miss").Inc()
	profile, err = p.fetch(ctx, raw)
	if err != nil {
		return UserProfile{}, Claims{}, apperr.UnauthorizedCause(ReasonInvalidBearer, err)
	}
	if err := entry.SetWithTTL(ctx, profile, p.ttl); err != nil {
		return UserProfile{}, Claims{}, apperr.Internal(fmt.Errorf("auth: cache profile: %w", err))
	}
	return profile, claims, nil
}

// Stage adapts Resolve to a guard stage that stores both the profile and the
// claims in the context.
func (p *ProfileResolver) Stage() Stage {
	return func(ctx context.Context, raw string) (context.Context, error) {
		profile, claims, err := p.Resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		return WithProfile(WithClaims(ctx, claims), profile), nil
	}
}

func (p *ProfileResolver) fetch(ctx context.Context, raw string) (UserProfile, error) {
	resp, err := p.client.Get(ctx, p.url, nil, httpx.WithBearer(raw))
	if err != nil {
		return UserProfile{}, fmt.Errorf("auth: userinfo: %w", err)
	}
	var body userinfo
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return UserProfile{}, fmt.Errorf("auth: decode userinfo: %w", err)
	}
	if err := validate.Struct(body); err != nil {
		return UserProfile{}, fmt.Errorf("auth: incomplete userinfo: %w", err)
	}
	return UserProfile{Email: *body.Email, EmailVerified: *body.EmailVerified, Subject: *body.Subject}, nil
}
