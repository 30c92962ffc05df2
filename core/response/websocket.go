package response

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/pubsub/core/handler"
)

// Upgrader buffer sizes used when no option overrides them.
const (
	DefaultWSReadBuffer  = 1024
	DefaultWSWriteBuffer = 1024
)

// WSHandler serves one upgraded connection. The connection is closed after it returns.
type WSHandler func(ctx context.Context, conn *websocket.Conn) error

type wsOptions struct {
	upgrader     websocket.Upgrader
	onDisconnect func(context.Context, *websocket.Conn)
	onError      func(context.Context, error)
}

// WebSocketOption configures the upgrade performed by WebSocket.
type WebSocketOption func(*wsOptions)

// WithWSBufferSizes sets the upgrader I/O buffer sizes. Non-positive values keep the defaults.
func WithWSBufferSizes(read, write int) WebSocketOption {
	return func(o *wsOptions) {
		if read > 0 {
			o.upgrader.ReadBufferSize = read
		}
		if write > 0 {
			o.upgrader.WriteBufferSize = write
		}
	}
}

// WithWSHandshakeTimeout bounds the opening handshake. Zero means no limit.
func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(o *wsOptions) {
		o.upgrader.HandshakeTimeout = timeout
	}
}

// WithWSAllowAnyOrigin disables the same-origin check.
func WithWSAllowAnyOrigin() WebSocketOption {
	return func(o *wsOptions) {
		o.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// WithWSOnDisconnect runs after the connection is closed.
func WithWSOnDisconnect(fn func(context.Context, *websocket.Conn)) WebSocketOption {
	return func(o *wsOptions) {
		o.onDisconnect = fn
	}
}

// WithWSErrorHandler receives upgrade failures and errors returned by the handler.
func WithWSErrorHandler(fn func(context.Context, error)) WebSocketOption {
	return func(o *wsOptions) {
		o.onError = fn
	}
}

// WebSocket upgrades the request and runs serve until it returns.
// Errors never become HTTP responses: after the upgrade the connection is
// hijacked, and a failed upgrade has already written its own status.
func WebSocket(serve WSHandler, opts ...WebSocketOption) handler.Response {
	o := &wsOptions{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  DefaultWSReadBuffer,
			WriteBufferSize: DefaultWSWriteBuffer,
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	report := func(ctx context.Context, err error) {
		if err != nil && o.onError != nil {
			o.onError(ctx, err)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		conn, err := o.upgrader.Upgrade(w, r, nil)
		if err != nil {
			report(ctx, err)
			return nil
		}
		defer func() {
			_ = conn.Close()
			if o.onDisconnect != nil {
				o.onDisconnect(ctx, conn)
			}
		}()

		report(ctx, serve(ctx, conn))
		return nil
	}
}
