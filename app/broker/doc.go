// Package broker assembles the pub/sub process: a pubsub.Registry exposed
// over an HTTP API and a WebSocket endpoint under /api/v1.
//
// HTTP endpoints (all require the X-API-Key header):
//
//	GET    /api/v1/health         uptime, topic and subscriber counts
//	GET    /api/v1/health/live    liveness probe
//	GET    /api/v1/health/ready   readiness probe
//	GET    /api/v1/stats          per-topic message and subscriber counts
//	GET    /api/v1/metrics        Prometheus exposition
//	GET    /api/v1/topics         list topics
//	POST   /api/v1/topics         create a topic {name}
//	DELETE /api/v1/topics/{name}  delete a topic
//	POST   /api/v1/subscribe      {topic, subscriber_id?, last_n?}
//	POST   /api/v1/unsubscribe    {topic, subscriber_id}
//	POST   /api/v1/publish        {topic, message:{id?, payload}}
//
// GET /api/v1/ws upgrades to a WebSocket first and checks the key afterwards;
// a rejected client receives an UNAUTHORIZED error frame and is closed.
// Clients then send ping, subscribe, unsubscribe and publish frames and the
// broker answers with pong, ack, event, error and info frames. Every open
// connection receives an info "ping" frame each heartbeat interval.
//
// Usage:
//
//	cfg, err := broker.LoadConfig()
//	if err != nil {
//		return err
//	}
//	app, err := broker.New(cfg, broker.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	return app.Run(ctx)
package broker
