package middleware_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/router"
	"github.com/dmitrymomot/pubsub/middleware"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	r := router.New[*router.Context]()
	r.Use(
		middleware.RequestID[*router.Context](),
		middleware.LoggingWithLogger[*router.Context](slog.New(capture)),
	)
	r.Get("/topics", ok("[]"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics?verbose=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := capture.all()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "HTTP request completed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/topics", entry["path"])
	assert.Equal(t, "verbose=1", entry["query"])
	assert.Equal(t, int64(200), entry["status_code"])
	assert.Equal(t, int64(2), entry["bytes_out"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), entry["request_id"])
}

func TestLoggingLevels(t *testing.T) {
	t.Parallel()

	capture := &captureHandler{}
	r := router.New[*router.Context](router.WithErrorHandler[*router.Context](func(ctx *router.Context, err error) {
		ctx.ResponseWriter().WriteHeader(http.StatusInternalServerError)
	}))
	r.Use(middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
		Logger:     slog.New(capture),
		LogHeaders: true,
		Skip: func(ctx handler.Context) bool {
			return ctx.Request().URL.Path == "/skip"
		},
	}))
	r.Get("/missing", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNotFound)
			return nil
		}
	})
	r.Get("/fail", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error { return errors.New("boom") }
	})
	r.Get("/skip", ok("skipped"))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Api-Key", "secret")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/skip", nil))

	entries := capture.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	headers, isMap := entries[0]["request_headers"].(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "[REDACTED]", headers["X-Api-Key"])

	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.NotNil(t, entries[1]["error"])
}
