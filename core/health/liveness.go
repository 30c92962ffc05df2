package health

import (
	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/response"
)

// Liveness indicates if the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
//
// Example:
//
//	r.Get("/health/live", health.Liveness[*router.Context])
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}

// NoContent returns HTTP 204 without body. Ideal for high-frequency checks.
//
// Example:
//
//	r.Get("/ping", health.NoContent[*router.Context])
func NoContent[C handler.Context](C) handler.Response {
	return response.NoContent()
}
