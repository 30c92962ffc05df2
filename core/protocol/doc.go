// Package protocol defines the wire shapes shared by the broker's HTTP API and
// its WebSocket endpoint.
//
// Every server frame carries a type discriminator and a UTC timestamp in the
// layout 2006-01-02T15:04:05Z:
//
//	{"type":"ack","status":"ok","request_id":"r1","topic":"orders","ts":"2025-08-25T10:00:00Z"}
//	{"type":"event","topic":"orders","message":{"id":"m1","payload":{...}},"ts":"..."}
//	{"type":"error","request_id":"r1","error":{"code":"TOPIC_NOT_FOUND","message":"..."},"ts":"..."}
//	{"type":"pong","request_id":"r1","ts":"..."}
//	{"type":"info","msg":"ping","ts":"..."}
//
// Clients send Request frames of type ping, subscribe, unsubscribe and publish.
package protocol
