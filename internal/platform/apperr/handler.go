package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// body is the uniform error envelope: a message plus, for validation
// errors, a field-keyed detail map.
type body struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPErrorHandler returns an echo error handler that serializes *Error
// values (and plain echo.HTTPError from middleware) into the envelope.
// Internal errors are logged with their cause and reported without it.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		resp := body{Message: "internal server error"}

		if e := As(err); e != nil {
			status = e.HTTPStatus()
			resp.Message = e.Message
			resp.Details = e.Fields
			if e.Kind == KindInternal {
				logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("internal error")
			}
		} else if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				resp.Message = msg
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}
