package httpx

import (
	"net/http"

	"github.com/adeilh/go-rakh-starter/apperr"
)

// Authenticator inspects a request's credentials and returns the request
// carrying the resolved identity in its context.
type Authenticator interface {
	Authenticate(r *http.Request) (*http.Request, error)
}

// AuthMiddleware runs a as a guard in front of the handler. Rejections go to
// the server's error handler.
func AuthMiddleware(a Authenticator) MiddlewareFunc {
	if a == nil {
		return func(next HandlerFunc) HandlerFunc {
			return func(c Context) error {
				return apperr.Unauthorized("Unauthorized")
			}
		}
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			req, err := a.Authenticate(c.Request())
			if err != nil {
				return err
			}
			c.SetRequest(req)
			return next(c)
		}
	}
}
