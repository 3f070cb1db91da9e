package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/logging"
)

// statusFor maps a service error onto an HTTP status and a client message.
// Internal details never reach the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, common.ErrorConflict.Error()
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrorUnauthorized.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrorTransient):
		return http.StatusServiceUnavailable, common.ErrorTransient.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func errorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			logger.Error(c.Request().Context(), "error response failed", "error", err)
		}
	}
}
