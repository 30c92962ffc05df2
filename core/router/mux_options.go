package router

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/pubsub/core/handler"
)

// Option configures a Router during creation.
type Option[C handler.Context] func(*root[C])

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler[C handler.Context](h handler.ErrorHandler[C]) Option[C] {
	return func(r *root[C]) {
		if h != nil {
			r.errorHandler = h
		}
	}
}

// WithMiddleware adds router-wide middleware.
func WithMiddleware[C handler.Context](middlewares ...handler.Middleware[C]) Option[C] {
	return func(r *root[C]) {
		r.middlewares = append(r.middlewares, middlewares...)
	}
}

// WithContextFactory sets the function that builds a C for each request.
func WithContextFactory[C handler.Context](f func(http.ResponseWriter, *http.Request, map[string]string) C) Option[C] {
	return func(r *root[C]) {
		if f != nil {
			r.newContext = f
		}
	}
}

// WithLogger sets a custom logger for the router.
func WithLogger[C handler.Context](logger *slog.Logger) Option[C] {
	return func(r *root[C]) {
		if logger != nil {
			r.logger = logger
		}
	}
}
