package app

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adeilh/go-rakh-starter/auth"
	"github.com/adeilh/go-rakh-starter/httpx"
)

// Routes registers every endpoint. Guard construction cannot fail for a
// State built by NewState, so errors here panic at startup.
func (s *State) Routes(a *httpx.App) {
	claims := must(auth.ClaimsGuard(s.verifier))
	profile := must(auth.ProfileGuard(s.profiles))
	bearer := must(auth.BearerGuard())

	a.GET("/health", s.health)
	a.GET("/metrics", httpx.WrapHandler(promhttp.Handler()))

	v1 := a.Group("/api/v1")
	v1.Group("/hello").RegisterRoutes(
		httpx.Route{Method: "GET", Path: "", Handler: sayHello},
		httpx.Route{Method: "GET", Path: "/me", Handler: s.me, Middleware: []httpx.MiddlewareFunc{httpx.AuthMiddleware(claims)}},
		httpx.Route{Method: "GET", Path: "/profile", Handler: s.profile, Middleware: []httpx.MiddlewareFunc{httpx.AuthMiddleware(profile)}},
		httpx.Route{Method: "GET", Path: "/token", Handler: s.token, Middleware: []httpx.MiddlewareFunc{httpx.AuthMiddleware(bearer)}},
	)

	if s.secret != nil {
		internal := must(auth.SecretGuard(s.secret))
		v1.Group("/internal", httpx.AuthMiddleware(internal)).GET("/hello", s.internalHello)
	}
}

func must(m *auth.Middleware, err error) *auth.Middleware {
	if err != nil {
		panic(err)
	}
	return m
}
