package broker

import (
	"log/slog"
	"sync"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/pubsub"
)

// hub tracks open WebSocket connections. The map value marks connections
// that still receive heartbeats.
type hub struct {
	mu      sync.RWMutex
	conns   map[*conn]bool
	logger  *slog.Logger
	metrics pubsub.Recorder
}

func newHub(log *slog.Logger, metrics pubsub.Recorder) *hub {
	return &hub{
		conns:   make(map[*conn]bool),
		logger:  log,
		metrics: metrics,
	}
}

func (h *hub) add(c *conn) {
	h.mu.Lock()
	h.conns[c] = true
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.SetGauge(MetricWSConnections, int64(n))
}

func (h *hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.SetGauge(MetricWSConnections, int64(n))
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// beating returns the number of connections in the heartbeat set.
func (h *hub) beating() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, ok := range h.conns {
		if ok {
			n++
		}
	}
	return n
}

func (h *hub) snapshot(heartbeatOnly bool) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*conn, 0, len(h.conns))
	for c, beat := range h.conns {
		if beat || !heartbeatOnly {
			out = append(out, c)
		}
	}
	return out
}

func (h *hub) stopHeartbeat(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		h.conns[c] = false
	}
}

// heartbeat offers an info ping to every connection without waiting.
// Connections that are closed or have a full queue leave the heartbeat set
// and keep serving requests.
func (h *hub) heartbeat() {
	for _, c := range h.snapshot(true) {
		if !c.offer(protocol.NewInfo(protocol.InfoPing, "")) {
			h.stopHeartbeat(c)
			h.logger.Debug("heartbeat not accepted, connection dropped from heartbeat set",
				logger.Event("heartbeat_failed"),
				logger.ConnID(c.id),
			)
		}
	}
}

// closeAll shuts down every tracked connection and returns how many there were.
func (h *hub) closeAll() int {
	conns := h.snapshot(false)
	for _, c := range conns {
		c.Shutdown()
		h.remove(c)
	}
	return len(conns)
}
