// Package middleware provides generic handler.Middleware for the broker's HTTP
// surface: request IDs, request logging, body size limits and pre-shared API
// key authentication.
//
//	r := router.New[*router.Context]()
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//		middleware.APIKey[*router.Context](cfg.APIKey),
//		middleware.BodyLimit[*router.Context](cfg.MaxBodySize),
//	)
//
// Every constructor has a WithConfig variant whose Skip function bypasses the
// middleware for selected requests.
package middleware
