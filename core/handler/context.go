package handler

import (
	"context"
	"net/http"
)

// Context is a request-scoped context.Context with access to the HTTP
// request, the response writer and path parameters. router.Context is the
// stock implementation.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// Param returns a path wildcard value, or "" when absent.
	Param(key string) string
	// SetValue stores a value visible to later Value calls.
	SetValue(key, val any)
}
