package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/pubsub/core/handler"
)

// root holds the state shared by a router and all of its groups.
type root[C handler.Context] struct {
	serveMux     *http.ServeMux
	paths        *http.ServeMux // method-less patterns, used to tell 404 from 405
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	logger       *slog.Logger
	middlewares  []handler.Middleware[C]

	mu      sync.RWMutex
	routes  []Route
	allowed map[string][]string // normalized path -> methods
	sealed  bool
}

// mux is a view on root with a path prefix and inline middlewares.
type mux[C handler.Context] struct {
	root        *root[C]
	prefix      string
	middlewares []handler.Middleware[C]
	inline      bool
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	r := &root[C]{
		serveMux:     http.NewServeMux(),
		paths:        http.NewServeMux(),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		allowed:      make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.newContext == nil {
		r.newContext = func(w http.ResponseWriter, req *http.Request, params map[string]string) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, req, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return &mux[C]{root: r}
}

// ServeHTTP implements http.Handler.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	if _, pattern := m.root.serveMux.Handler(r); pattern != "" {
		m.root.serveMux.ServeHTTP(ww, r)
		return
	}

	ctx := m.root.newContext(ww, r, nil)
	if allowed := m.root.allowedMethods(r); len(allowed) > 0 {
		ww.Header().Set("Allow", strings.Join(allowed, ", "))
		m.root.errorHandler(ctx, ErrMethodNotAllowed)
		return
	}
	m.root.errorHandler(ctx, ErrNotFound)
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.handle("", pattern, h)
}

func (m *mux[C]) Method(method, pattern string, h handler.HandlerFunc[C]) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		panic(fmt.Errorf("%w: %q", ErrInvalidMethod, method))
	}
	m.handle(method, pattern, h)
}

// Use appends router-wide middleware on the top-level router, or inline
// middleware on a group. Top-level middleware must be added before routes.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.inline {
		m.middlewares = append(m.middlewares, middlewares...)
		return
	}

	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	if m.root.sealed {
		panic("router: all middlewares must be defined before routes on a mux")
	}
	m.root.middlewares = append(m.root.middlewares, middlewares...)
}

// With returns an inline router that adds middlewares to routes registered on it.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	mws := slices.Concat(m.middlewares, middlewares)
	return &mux[C]{root: m.root, prefix: m.prefix, middlewares: mws, inline: true}
}

// Group creates an inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Route creates an inline router whose patterns are prefixed with prefix.
func (m *mux[C]) Route(prefix string, fn func(r Router[C])) Router[C] {
	if fn == nil {
		panic(fmt.Errorf("%w on '%s'", ErrNilSubrouter, prefix))
	}
	if prefix == "" || prefix[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, prefix))
	}
	sub := &mux[C]{
		root:        m.root,
		prefix:      m.prefix + strings.TrimSuffix(prefix, "/"),
		middlewares: slices.Clone(m.middlewares),
		inline:      true,
	}
	fn(sub)
	return sub
}

// Routes returns all registered routes in registration order.
func (m *mux[C]) Routes() []Route {
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return slices.Clone(m.root.routes)
}

func (m *mux[C]) handle(method, pattern string, fn handler.HandlerFunc[C]) {
	if pattern == "" || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}

	path := m.prefix + pattern
	if m.prefix != "" && pattern == "/" {
		path = m.prefix
	}

	h := fn
	if len(m.middlewares) > 0 {
		h = chain(m.middlewares, fn)
	}

	full := path
	if method != "" {
		full = method + " " + path
	}
	m.root.serveMux.Handle(full, m.root.endpoint(h, wildcardNames(path)))
	m.root.register(method, path)
}

func (r *root[C]) register(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true
	r.routes = append(r.routes, Route{Method: method, Pattern: path})

	key := normalizePattern(path)
	if _, ok := r.allowed[key]; !ok {
		r.paths.Handle(key, http.NotFoundHandler())
	}
	if method == "" {
		method = "*"
	}
	if !slices.Contains(r.allowed[key], method) {
		r.allowed[key] = append(r.allowed[key], method)
	}
}

func (r *root[C]) allowedMethods(req *http.Request) []string {
	_, pattern := r.paths.Handler(req)
	if pattern == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.allowed[pattern])
}

// endpoint adapts a handler to net/http with panic recovery and error handling.
func (r *root[C]) endpoint(fn handler.HandlerFunc[C], names []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww, ok := w.(*responseWriter)
		if !ok {
			ww = newResponseWriter(w)
		}

		ctx := r.newContext(ww, req, pathParams(req, names))

		defer func() {
			if p := recover(); p != nil {
				perr := &panicError{value: p, stack: debug.Stack()}
				if ww.Written() {
					r.logger.Error("panic after response written",
						slog.Any("value", perr.value),
						slog.String("stack", string(perr.stack)),
						slog.String("path", req.URL.Path),
						slog.String("method", req.Method),
						slog.Int("status", ww.Status()),
					)
					return
				}
				r.errorHandler(ctx, perr)
			}
		}()

		h := fn
		if len(r.middlewares) > 0 {
			h = chain(r.middlewares, fn)
		}

		response := h(ctx)
		if response == nil {
			r.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := response(ww, req); err != nil {
			r.errorHandler(ctx, err)
		}
	})
}

// chain builds a single handler from a middleware stack and endpoint.
// The first middleware runs first.
func chain[C handler.Context](middlewares []handler.Middleware[C], endpoint handler.HandlerFunc[C]) handler.HandlerFunc[C] {
	h := endpoint
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
