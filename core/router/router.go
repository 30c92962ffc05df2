package router

import (
	"net/http"

	"github.com/dmitrymomot/pubsub/core/handler"
)

// Router is the main routing interface for handling HTTP requests.
// It supports middleware chaining and route grouping. Patterns use the
// net/http ServeMux syntax: "/topics/{name}", "/static/{path...}".
type Router[C handler.Context] interface {
	http.Handler
	Routes

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	Put(pattern string, h handler.HandlerFunc[C])
	Delete(pattern string, h handler.HandlerFunc[C])
	Patch(pattern string, h handler.HandlerFunc[C])

	// Handle registers h for every method.
	Handle(pattern string, h handler.HandlerFunc[C])
	Method(method, pattern string, h handler.HandlerFunc[C])

	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]

	Group(fn func(r Router[C])) Router[C]
	Route(prefix string, fn func(r Router[C])) Router[C]
}

// Routes provides route introspection for debugging and monitoring.
type Routes interface {
	Routes() []Route
}

// Route describes a registered route. Method is empty for Handle routes.
type Route struct {
	Method  string
	Pattern string
}

// New creates a router. Custom context types need WithContextFactory.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux(opts...)
}
