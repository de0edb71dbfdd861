// Package app wires configuration, storage and auth into the HTTP server.
package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/adeilh/go-rakh-starter/auth"
	"github.com/adeilh/go-rakh-starter/cache"
	"github.com/adeilh/go-rakh-starter/config"
	"github.com/adeilh/go-rakh-starter/httpx"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the long-lived resources handlers share.
type Deps struct {
	Logger *zap.Logger
	DB     Pinger
	Cache  cache.Store
	// CachePing checks the cache backend; nil skips the check.
	CachePing Pinger
	Client    *httpx.Client
}

// State is passed to every route. It holds no per-request data.
type State struct {
	logger    *zap.Logger
	db        Pinger
	cachePing Pinger
	verifier  *auth.Verifier
	profiles  *auth.ProfileResolver
	secret    *auth.SecretVerifier
}

func NewState(settings *config.Settings, deps Deps) (*State, error) {
	if settings == nil {
		return nil, errors.New("app: settings are required")
	}
	if deps.Cache == nil {
		return nil, errors.New("app: cache store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Client == nil {
		deps.Client = httpx.NewClient()
	}

	keys := auth.NewKeyCache(deps.Cache, deps.Client, settings.OAuth.JWKSURL)
	verifier, err := auth.NewVerifier(keys, auth.VerifierOptions{
		Issuer:   settings.OAuth.Issuer,
		Audience: settings.OAuth.Audience,
		Logger:   deps.Logger.Named("auth"),
	})
	if err != nil {
		return nil, err
	}
	profiles, err := auth.NewProfileResolver(verifier, deps.Cache, deps.Client, settings.OAuth.UserinfoURL)
	if err != nil {
		return nil, err
	}

	s := &State{
		logger:    deps.Logger,
		db:        deps.DB,
		cachePing: deps.CachePing,
		verifier:  verifier,
		profiles:  profiles,
	}
	if settings.Auth.Secret != "" {
		s.secret, err = auth.NewSecretVerifier([]byte(settings.Auth.Secret), auth.DefaultLeeway, nil)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
