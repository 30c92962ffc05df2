// Package router provides a generic HTTP router built on net/http.ServeMux
// pattern matching, with typed handler contexts, middleware chaining and route
// grouping.
//
// # Basic Usage
//
//	r := router.New[*router.Context]()
//
//	r.Get("/health", healthHandler)
//	r.Delete("/topics/{name}", func(ctx *router.Context) handler.Response {
//		name := ctx.Param("name")
//		// ...
//	})
//
//	http.ListenAndServe(":8080", r)
//
// # Groups and Prefixes
//
//	r.Route("/api/v1", func(r router.Router[*router.Context]) {
//		r.Use(requireAPIKey)
//		r.Get("/topics", listTopics)
//		r.Post("/topics", createTopic)
//	})
//
// Middleware added with Use on the top-level router runs for every route;
// on a group it runs only for routes registered through that group.
//
// # Custom Contexts
//
// Any type implementing handler.Context can be used with a factory:
//
//	r := router.New[*AppContext](
//		router.WithContextFactory(newAppContext),
//		router.WithErrorHandler(response.JSONErrorHandler[*AppContext]),
//	)
//
// # Errors
//
// Unknown paths reach the error handler with ErrNotFound; known paths with
// the wrong method get ErrMethodNotAllowed and an Allow header. Panics are
// recovered and passed as a PanicError.
package router
