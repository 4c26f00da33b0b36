package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrPayment, http.StatusBadGateway},
	{service.ErrUnavailable, http.StatusServiceUnavailable},
}

// classify maps service errors to a status and a client-safe message.
func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// fail logs a failed operation and converts err into an echo.HTTPError.
func fail(l *zap.SugaredLogger, event string, err error) error {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		l.Errorw(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warnw(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			logging.FromContext(c.Request().Context()).Errorw("unhandled_error", "error", err)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]string{"error": msg})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Errorw("write_error_response_failed", "error", err)
	}
}
