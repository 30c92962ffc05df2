package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/response"
)

// DefaultBodyLimit is used when BodyLimitConfig.MaxSize is not set.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 1MB)
	MaxSize int64

	// ErrorHandler builds the response for requests whose Content-Length
	// exceeds the limit.
	ErrorHandler func(ctx handler.Context, contentLength, maxSize int64) handler.Response
}

// BodyLimit limits request bodies to maxSize bytes. Requests announcing a
// larger Content-Length are rejected with 413 before the handler runs; other
// bodies are wrapped with http.MaxBytesReader, so reading past the limit fails
// with *http.MaxBytesError.
func BodyLimit[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig creates a body limit middleware with custom configuration.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultBodyLimit
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ handler.Context, contentLength, maxSize int64) handler.Response {
			return response.Error(response.ErrRequestEntityTooLarge.
				WithMessage(fmt.Sprintf("request body too large: %d bytes, limit %d", contentLength, maxSize)).
				WithDetails(map[string]any{"size": contentLength, "limit": maxSize}))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			if req.ContentLength > cfg.MaxSize {
				return cfg.ErrorHandler(ctx, req.ContentLength, cfg.MaxSize)
			}
			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, cfg.MaxSize)
			}
			return next(ctx)
		}
	}
}
