package broker

import "errors"

var (
	// ErrConnClosed is returned by sends on a closed WebSocket connection.
	ErrConnClosed = errors.New("connection closed")
	// ErrSlowConsumer is returned when a frame cannot be queued within the
	// write timeout.
	ErrSlowConsumer = errors.New("outbound queue full")
	// ErrNotAccepting is reported by the readiness check before Run starts
	// and after shutdown begins.
	ErrNotAccepting = errors.New("not accepting connections")
)
