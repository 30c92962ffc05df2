package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/pubsub"
	"github.com/dmitrymomot/pubsub/core/response"
	"github.com/dmitrymomot/pubsub/core/router"
	"github.com/dmitrymomot/pubsub/middleware"
)

// handleWebSocket upgrades first and authenticates afterwards, so a rejected
// client still receives an UNAUTHORIZED error frame before the close.
func (a *App) handleWebSocket(ctx *router.Context) handler.Response {
	apiKey := ctx.Request().Header.Get(middleware.DefaultAPIKeyHeader)

	return response.WebSocket(
		func(reqCtx context.Context, ws *websocket.Conn) error {
			if err := middleware.CheckAPIKey(a.cfg.APIKey, apiKey); err != nil {
				a.logger.WarnContext(reqCtx, "websocket rejected",
					logger.Component("ws"),
					logger.Event("unauthorized"),
					logger.Error(err),
				)
				_ = ws.SetWriteDeadline(time.Now().Add(closeGracePeriod))
				_ = ws.WriteJSON(protocol.NewError("", protocol.CodeUnauthorized, middleware.ErrInvalidAPIKey.Error()))
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
					time.Now().Add(closeGracePeriod),
				)
				return nil
			}
			return a.serveConn(reqCtx, ws)
		},
		response.WithWSAllowAnyOrigin(),
		response.WithWSBufferSizes(a.cfg.WSReadBuffer, a.cfg.WSWriteBuffer),
		response.WithWSHandshakeTimeout(a.cfg.WSHandshakeTimeout),
		response.WithWSErrorHandler(func(reqCtx context.Context, err error) {
			a.logger.WarnContext(reqCtx, "websocket error", logger.Component("ws"), logger.Error(err))
		}),
	)
}

// session is the per-connection state of the WebSocket protocol.
type session struct {
	app    *App
	conn   *conn
	logger *slog.Logger
	// subscribers bound to this connection, keyed by client id
	subs map[string]*pubsub.ClientSubscriber
}

func (a *App) serveConn(ctx context.Context, ws *websocket.Conn) error {
	// The HTTP server's read deadline would otherwise survive the upgrade.
	_ = ws.SetReadDeadline(time.Time{})
	if a.cfg.MaxBodySize > 0 {
		ws.SetReadLimit(a.cfg.MaxBodySize)
	}

	c := newConn(ws, a.cfg.WSOutboundBuffer, a.cfg.WSWriteTimeout, a.logger)
	s := &session{
		app:    a,
		conn:   c,
		logger: c.logger.With(logger.Component("ws")),
		subs:   make(map[string]*pubsub.ClientSubscriber),
	}

	a.hub.add(c)
	s.logger.InfoContext(ctx, "websocket connected", logger.Event("connected"))
	defer s.cleanup(ctx)

	return s.readLoop(ctx, ws)
}

func (s *session) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) && !s.conn.Closed() {
				s.logger.DebugContext(ctx, "websocket read failed", logger.Error(err))
			}
			return nil
		}

		if err := s.dispatch(ctx, data); err != nil {
			_ = s.conn.Send(protocol.NewError("", protocol.CodeInternal, "Unexpected server error: "+err.Error()))
			return err
		}
	}
}

// dispatch handles one client frame. A returned error ends the connection.
func (s *session) dispatch(ctx context.Context, data []byte) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()

	var req protocol.Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.reply(protocol.NewError("", protocol.CodeBadRequest, "Invalid JSON"))
		return nil
	}

	switch req.Type {
	case protocol.TypePing:
		s.reply(protocol.NewPong(req.RequestID))
	case protocol.TypeSubscribe:
		s.subscribe(ctx, req)
	case protocol.TypeUnsubscribe:
		s.unsubscribe(req)
	case protocol.TypePublish:
		s.publish(req)
	default:
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, fmt.Sprintf("Unknown type: '%s'", req.Type)))
	}
	return nil
}

func (s *session) subscribe(ctx context.Context, req protocol.Request) {
	if req.Topic == "" || req.ClientID == "" {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, "subscribe requires topic and client_id"))
		return
	}

	sub, err := s.app.registry.SubscribeExisting(req.Topic, req.ClientID)
	if err != nil {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeTopicNotFound, fmt.Sprintf("Topic '%s' not found", req.Topic)))
		return
	}

	sub.Attach(ctx, s.conn, s.conn.Deliver)
	s.subs[sub.ID()] = sub

	s.reply(protocol.NewAck(req.RequestID, req.Topic))

	if req.LastN > 0 {
		if topic, ok := s.app.registry.GetTopic(req.Topic); ok {
			for _, msg := range topic.GetLastN(req.LastN) {
				s.reply(protocol.NewEvent(req.Topic, msg.ID(), msg.Payload()))
			}
		}
	}
}

func (s *session) unsubscribe(req protocol.Request) {
	if req.Topic == "" || req.ClientID == "" {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, "unsubscribe requires topic and client_id"))
		return
	}

	if err := s.app.registry.Unsubscribe(req.Topic, req.ClientID); err != nil {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeTopicNotFound,
			fmt.Sprintf("Topic '%s' not found or client not subscribed", req.Topic)))
		return
	}
	s.reply(protocol.NewAck(req.RequestID, req.Topic))
}

func (s *session) publish(req protocol.Request) {
	if req.Topic == "" {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, "publish requires topic"))
		return
	}
	if req.Message == nil || req.Message.Payload == nil {
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, "publish requires message object with id and payload"))
		return
	}

	_, err := s.app.registry.Publish(req.Topic, req.Message.Payload, pubsub.WithMessageID(req.Message.ID))
	switch {
	case errors.Is(err, pubsub.ErrTopicNotFound):
		s.reply(protocol.NewError(req.RequestID, protocol.CodeTopicNotFound, fmt.Sprintf("Topic '%s' not found", req.Topic)))
	case err != nil:
		s.reply(protocol.NewError(req.RequestID, protocol.CodeBadRequest, err.Error()))
	default:
		s.reply(protocol.NewAck(req.RequestID, req.Topic))
	}
}

// reply queues a response frame for this connection.
func (s *session) reply(frame protocol.Frame) {
	if err := s.conn.Deliver(frame); err != nil && !errors.Is(err, ErrSlowConsumer) {
		s.logger.Debug("reply dropped", logger.FrameType(frame.Type), logger.Error(err))
	}
}

// cleanup detaches every subscriber this connection still owns. Topic
// membership is kept, so a reconnecting client resumes with the same id, and
// a subscriber already taken over by a newer connection is left alone.
func (s *session) cleanup(ctx context.Context) {
	detached := 0
	for _, sub := range s.subs {
		if sub.Detach(s.conn) {
			detached++
		}
	}
	s.app.hub.remove(s.conn)
	s.conn.Close()

	s.logger.InfoContext(ctx, "websocket disconnected",
		logger.Event("disconnected"),
		logger.Count("subscribers", len(s.subs)),
		logger.Count("detached", detached),
	)
}
