package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/router"
)

func text(s string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte(s))
		return err
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouterMethods(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/topics", func(ctx *router.Context) handler.Response { return text("list") })
	r.Post("/topics", func(ctx *router.Context) handler.Response { return text("create") })
	r.Delete("/topics/{name}", func(ctx *router.Context) handler.Response {
		return text("delete " + ctx.Param("name"))
	})

	tests := []struct {
		method, target string
		status         int
		body           string
	}{
		{http.MethodGet, "/topics", http.StatusOK, "list"},
		{http.MethodPost, "/topics", http.StatusOK, "create"},
		{http.MethodDelete, "/topics/orders", http.StatusOK, "delete orders"},
		{http.MethodGet, "/missing", http.StatusNotFound, "not found"},
		{http.MethodPut, "/topics", http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			t.Parallel()
			rec := serve(r, tt.method, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestRouterAllowHeader(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/topics/{name}", func(ctx *router.Context) handler.Response { return text("get") })
	r.Delete("/topics/{id}", func(ctx *router.Context) handler.Response { return text("delete") })

	rec := serve(r, http.MethodPost, "/topics/orders")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, DELETE", rec.Header().Get("Allow"))
}

func TestRouterMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	mw := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				calls = append(calls, name)
				return next(ctx)
			}
		}
	}

	r := router.New[*router.Context]()
	r.Use(mw("global"))
	r.Route("/api", func(r router.Router[*router.Context]) {
		r.Use(mw("group"))
		r.With(mw("inline")).Get("/ping", func(ctx *router.Context) handler.Response {
			calls = append(calls, "handler")
			return text("pong")
		})
	})

	rec := serve(r, http.MethodGet, "/api/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"global", "group", "inline", "handler"}, calls)

	assert.Panics(t, func() { r.Use(mw("late")) })
}

func TestRouterErrors(t *testing.T) {
	t.Parallel()

	var handled error
	r := router.New(router.WithErrorHandler[*router.Context](func(ctx *router.Context, err error) {
		handled = err
		ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
	}))

	r.Get("/fail", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error { return errors.New("boom") }
	})
	r.Get("/nil", func(ctx *router.Context) handler.Response { return nil })
	r.Get("/panic", func(ctx *router.Context) handler.Response { panic("kaboom") })

	t.Run("response error", func(t *testing.T) {
		rec := serve(r, http.MethodGet, "/fail")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.EqualError(t, handled, "boom")
	})

	t.Run("nil response", func(t *testing.T) {
		serve(r, http.MethodGet, "/nil")
		assert.ErrorIs(t, handled, router.ErrNilResponse)
	})

	t.Run("panic", func(t *testing.T) {
		serve(r, http.MethodGet, "/panic")
		var perr router.PanicError
		require.ErrorAs(t, handled, &perr)
		assert.Equal(t, "kaboom", perr.Value())
		assert.NotEmpty(t, perr.Stack())
	})
}

func TestRouterRoutes(t *testing.T) {
	t.Parallel()

	noop := func(ctx *router.Context) handler.Response { return text("") }
	r := router.New[*router.Context]()
	r.Route("/api/v1", func(r router.Router[*router.Context]) {
		r.Get("/topics", noop)
		r.Handle("/ws", noop)
	})

	assert.Equal(t, []router.Route{
		{Method: http.MethodGet, Pattern: "/api/v1/topics"},
		{Method: "", Pattern: "/api/v1/ws"},
	}, r.Routes())

	assert.Panics(t, func() { r.Get("topics", noop) })
	assert.Panics(t, func() { r.Route("/x", nil) })
}

type appContext struct {
	*router.Context
	tenant string
}

func TestRouterCustomContext(t *testing.T) {
	t.Parallel()

	r := router.New(router.WithContextFactory(func(w http.ResponseWriter, req *http.Request, params map[string]string) *appContext {
		return &appContext{Context: router.NewContext(w, req, params), tenant: req.Header.Get("X-Tenant")}
	}))
	r.Get("/whoami", func(ctx *appContext) handler.Response { return text(ctx.tenant) })

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Tenant", "acme")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "acme", rec.Body.String())
}

func TestContextSetValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(""))
	ctx := router.NewContext(httptest.NewRecorder(), req, nil)
	ctx.SetValue(key{}, "v")

	assert.Equal(t, "v", ctx.Value(key{}))
	assert.Equal(t, "v", ctx.Request().Context().Value(key{}))
	assert.Empty(t, ctx.Param("missing"))
}
