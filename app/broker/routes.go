package broker

import (
	"github.com/dmitrymomot/pubsub/core/health"
	"github.com/dmitrymomot/pubsub/core/response"
	"github.com/dmitrymomot/pubsub/core/router"
	"github.com/dmitrymomot/pubsub/middleware"
)

// APIPrefix is the path prefix of every broker endpoint.
const APIPrefix = "/api/v1"

type apiRouter = router.Router[*router.Context]

func (a *App) routes() apiRouter {
	mux := router.New[*router.Context](
		router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]),
		router.WithLogger[*router.Context](a.logger),
	)
	mux.Use(
		middleware.RequestID[*router.Context](),
		middleware.LoggingWithLogger[*router.Context](a.logger),
	)

	mux.Route(APIPrefix, func(api apiRouter) {
		// Authenticated after the upgrade, see handleWebSocket.
		api.Get("/ws", a.handleWebSocket)

		api.Group(func(api apiRouter) {
			api.Use(
				middleware.APIKey[*router.Context](a.cfg.APIKey),
				middleware.BodyLimit[*router.Context](a.cfg.MaxBodySize),
			)

			api.Get("/health", a.health)
			api.Get("/health/live", health.Liveness[*router.Context])
			api.Get("/health/ready", health.Readiness[*router.Context](a.logger, a.AcceptingConnections))
			api.Get("/stats", a.stats)
			api.Get("/metrics", a.metricsHandler)

			api.Get("/topics", a.listTopics)
			api.Post("/topics", a.createTopic)
			api.Delete("/topics/{name}", a.deleteTopic)

			api.Post("/subscribe", a.subscribe)
			api.Post("/unsubscribe", a.unsubscribe)
			api.Post("/publish", a.publish)
		})
	})

	return mux
}
