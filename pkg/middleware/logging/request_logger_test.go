package loggingmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   zapcore.Level
	}{
		{
			name:    "ok",
			handler: func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			status:  http.StatusOK,
			level:   zapcore.InfoLevel,
		},
		{
			name:    "client error",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound, "missing") },
			status:  http.StatusNotFound,
			level:   zapcore.WarnLevel,
		},
		{
			name:    "server error",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") },
			status:  http.StatusInternalServerError,
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			e := echo.New()
			e.Use(RequestLogger(zap.New(core).Sugar()))
			e.GET("/x", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			entries := logs.FilterMessage("request completed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.EqualValues(t, tt.status, entries[0].ContextMap()["status"])
		})
	}
}

func TestRequestLogger_PutsLoggerIntoContext(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core).Sugar()))
	e.GET("/x", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Infow("inside_handler")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("inside_handler").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "/x", entries[0].ContextMap()["path"])
}
