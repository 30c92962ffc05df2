// Package handler defines the type-safe handler abstractions shared by the
// router, response and middleware packages.
//
// A handler receives a request context and returns a Response; rendering is
// deferred until the router calls the Response with the writer and request.
// This keeps handlers free of I/O and lets middleware replace a response
// before anything is written.
//
//	type Response func(w http.ResponseWriter, r *http.Request) error
//	type HandlerFunc[C Context] func(ctx C) Response
//	type ErrorHandler[C Context] func(ctx C, err error)
//	type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
//
// Context extends context.Context with HTTP accessors:
//
//	type Context interface {
//		context.Context
//		Request() *http.Request
//		ResponseWriter() http.ResponseWriter
//		Param(key string) string
//		SetValue(key, val any)
//	}
//
// # Usage
//
//	import (
//		"github.com/dmitrymomot/pubsub/core/handler"
//		"github.com/dmitrymomot/pubsub/core/response"
//		"github.com/dmitrymomot/pubsub/core/router"
//	)
//
//	func listTopics(reg *pubsub.Registry) handler.HandlerFunc[*router.Context] {
//		return func(ctx *router.Context) handler.Response {
//			return response.JSON(map[string]any{"topics": reg.ListTopics()})
//		}
//	}
//
// Middleware wraps a HandlerFunc and may short-circuit by returning its own
// Response:
//
//	func requireJSON[C handler.Context](next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//		return func(ctx C) handler.Response {
//			if ctx.Request().Header.Get("Content-Type") != "application/json" {
//				return response.Error(response.ErrUnsupportedMediaType)
//			}
//			return next(ctx)
//		}
//	}
package handler
