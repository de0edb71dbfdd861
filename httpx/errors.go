package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adeilh/go-rakh-starter/apperr"
)

const errorMessage = "An error has occurred"

// ErrorHandler renders every error as a Response envelope whose status is
// derived from the error kind. Server-side failures are logged with their
// cause; client errors are logged at info.
func ErrorHandler(logger *zap.Logger) HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c Context) {
		if c.Response().Committed {
			return
		}
		appErr := toAppError(err)
		status := appErr.Status()

		fields := []zap.Field{
			zap.String("kind", string(appErr.Kind)),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = Failure(appErr).WithMessage(errorMessage).JSON(c, status)
	}
}

func toAppError(err error) *apperr.Error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		switch {
		case he.Code == http.StatusNotFound:
			return apperr.NotFound(msg)
		case he.Code == http.StatusUnauthorized:
			return apperr.Unauthorized(msg)
		case he.Code >= 400 && he.Code < 500:
			return apperr.BadRequest(msg)
		default:
			return apperr.Internal(err)
		}
	}
	return apperr.From(err)
}
