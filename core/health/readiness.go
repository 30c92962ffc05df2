package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/response"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	r.Get("/health/ready", health.Readiness[*router.Context](
//		logger,
//		app.AcceptingConnections,
//	))
func Readiness[C handler.Context](log *slog.Logger, fn ...func(context.Context) error) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					logger.Error(err),
				)
				return response.Error(response.ErrServiceUnavailable)
			}
		}

		return response.String("READY")
	}
}
