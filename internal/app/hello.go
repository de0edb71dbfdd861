package app

import (
	"net/http"

	"github.com/adeilh/go-rakh-starter/apperr"
	"github.com/adeilh/go-rakh-starter/auth"
	"github.com/adeilh/go-rakh-starter/httpx"
)

func sayHello(c httpx.Context) error {
	return httpx.OK("Hello, world!").
		WithMessage("Success").
		WithLink(httpx.NewLink("self", "/hello", http.MethodGet)).
		JSON(c, http.StatusOK)
}

func (s *State) me(c httpx.Context) error {
	claims, ok := auth.ClaimsFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized(auth.ReasonUnauthorized)
	}
	return httpx.OK(claims).
		WithMessage("Success").
		WithLink(httpx.NewLink("self", "/hello/me", http.MethodGet)).
		JSON(c, http.StatusOK)
}

func (s *State) profile(c httpx.Context) error {
	profile, ok := auth.ProfileFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized(auth.ReasonInvalidBearer)
	}
	return httpx.OK(profile).
		WithMessage("Success").
		WithLink(httpx.NewLink("self", "/hello/profile", http.MethodGet)).
		JSON(c, http.StatusOK)
}

type tokenInfo struct {
	Present bool `json:"present"`
	Length  int  `json:"length"`
}

// token reports on the unverified bearer token without echoing it.
func (s *State) token(c httpx.Context) error {
	raw, ok := auth.BearerTokenFromContext(c.Request().Context())
	return httpx.OK(tokenInfo{Present: ok, Length: len(raw)}).
		WithMessage("Success").
		JSON(c, http.StatusOK)
}

func (s *State) internalHello(c httpx.Context) error {
	claims, ok := auth.ClaimsFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized(auth.ReasonUnauthorized)
	}
	return httpx.OK(map[string]string{"subject": claims.Subject}).
		WithMessage("Hello, service!").
		JSON(c, http.StatusOK)
}
