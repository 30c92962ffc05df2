package broker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
)

const closeGracePeriod = time.Second

// conn serializes frames onto one WebSocket. Every writer (request replies,
// subscriber drains, heartbeats) goes through Send, and a single writer
// goroutine owns the socket's write side.
type conn struct {
	id      string
	ws      *websocket.Conn
	out     chan protocol.Frame
	timeout time.Duration
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	writer    sync.WaitGroup
}

func newConn(ws *websocket.Conn, buffer int, timeout time.Duration, log *slog.Logger) *conn {
	if buffer < 1 {
		buffer = 1
	}
	c := &conn{
		id:      uuid.NewString(),
		ws:      ws,
		out:     make(chan protocol.Frame, buffer),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	c.logger = log.With(logger.ConnID(c.id))

	c.writer.Add(1)
	go c.writeLoop()
	return c
}

// Send queues frame for writing. When the queue is full it waits up to the
// write timeout and then gives up with ErrSlowConsumer.
func (c *conn) Send(frame protocol.Frame) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.out <- frame:
		return nil
	default:
	}

	if c.timeout <= 0 {
		select {
		case c.out <- frame:
			return nil
		case <-c.done:
			return ErrConnClosed
		}
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case c.out <- frame:
		return nil
	case <-timer.C:
		return ErrSlowConsumer
	case <-c.done:
		return ErrConnClosed
	}
}

// Deliver sends frame and, if the queue stayed full, tells the peer with a
// SLOW_CONSUMER error frame. It is the send callback given to subscribers.
func (c *conn) Deliver(frame protocol.Frame) error {
	err := c.Send(frame)
	if errors.Is(err, ErrSlowConsumer) {
		c.logger.Warn("outbound queue full, frame not delivered",
			logger.Event("slow_consumer"),
			logger.FrameType(frame.Type),
			logger.Topic(frame.Topic),
		)
		c.offer(protocol.NewError("", protocol.CodeSlowConsumer, "delivery failed or subscriber queue overflow"))
	}
	return err
}

// offer queues frame only if there is room right now.
func (c *conn) offer(frame protocol.Frame) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}

// Close stops the writer and closes the socket. Frames already queued get
// one grace period to be flushed. Safe to call more than once.
func (c *conn) Close() {
	c.close(websocket.CloseNormalClosure, "")
}

// Shutdown closes the connection with a going-away close frame.
func (c *conn) Shutdown() {
	c.close(websocket.CloseGoingAway, "server shutting down")
}

func (c *conn) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writer.Wait()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(closeGracePeriod),
		)
		_ = c.ws.Close()
	})
}

// Closed reports whether Close has been called.
func (c *conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *conn) writeLoop() {
	defer c.writer.Done()
	for {
		select {
		case <-c.done:
			c.flush()
			return
		case frame := <-c.out:
			if err := c.write(frame); err != nil {
				c.logger.Debug("websocket write failed",
					logger.Event("write_failed"),
					logger.FrameType(frame.Type),
					logger.Error(err),
				)
				// Closing the socket fails the read loop, whose cleanup
				// calls Close.
				_ = c.ws.Close()
				return
			}
		}
	}
}

// flush writes whatever is still queued, bounded by closeGracePeriod.
func (c *conn) flush() {
	_ = c.ws.SetWriteDeadline(time.Now().Add(closeGracePeriod))
	for {
		select {
		case frame := <-c.out:
			if err := c.ws.WriteJSON(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *conn) write(frame protocol.Frame) error {
	if c.timeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return c.ws.WriteJSON(frame)
}
