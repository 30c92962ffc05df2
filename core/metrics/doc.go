// Package metrics provides a named counter and gauge store for the broker,
// exported through a Prometheus registry.
//
//	store := metrics.New(metrics.WithRuntimeCollectors())
//	reg := pubsub.NewRegistry(pubsub.WithMetrics(store))
//
//	mux.Handle("/metrics", store.Handler())
//
// Counter "messages_published_total" is exported as
// pubsub_messages_published_total.
package metrics
