// Package health provides probe handlers.
//
//   - Liveness: the process is running, no checks
//   - Readiness: every check returns nil, otherwise 503
//   - NoContent: bare 204
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log, app.AcceptingConnections))
//
// Checks have the signature func(context.Context) error.
package health
