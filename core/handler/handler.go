package handler

import "net/http"

// Response renders a reply. It runs after the handler and its middleware
// returned; a non-nil error goes to the router's ErrorHandler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles a request through its typed context.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by handlers or responses.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a HandlerFunc. It may return its own Response to
// short-circuit the chain.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
