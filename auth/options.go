package auth

import (
	"net/http"

	"github.com/adeilh/go-rakh-starter/apperr"
)

// MiddlewareOption customises a guard built by NewMiddleware or one of the
// *Guard constructors.
type MiddlewareOption func(*Middleware)

// WithTokenExtractor swaps the Authorization header parser.
func WithTokenExtractor(extractor TokenExtractor) MiddlewareOption {
	return func(m *Middleware) {
		if extractor != nil {
			m.extractor = extractor
		}
	}
}

// WithSkipper lets matching requests through untouched.
func WithSkipper(skip func(*http.Request) bool) MiddlewareOption {
	return func(m *Middleware) {
		if skip != nil {
			m.skip = skip
		}
	}
}

// WithErrorHandler replaces the writer used by Handler for rejections.
func WithErrorHandler(handler func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		if handler != nil {
			m.reject = handler
		}
	}
}

// WithRejectReason sets the reason reported when the token cannot be
// extracted or the stage fails with a non-API error.
func WithRejectReason(reason string) MiddlewareOption {
	return func(m *Middleware) {
		if reason != "" {
			m.reason = reason
		}
	}
}

func never(*http.Request) bool { return false }

// writeRejection renders err in the API error shape.
func writeRejection(w http.ResponseWriter, _ *http.Request, err error) {
	e := apperr.From(err)
	body, mErr := e.MarshalJSON()
	if mErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_, _ = w.Write(body)
}
