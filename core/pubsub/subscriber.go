package pubsub

import (
	"log/slog"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
)

// Subscriber receives messages delivered to the topics it is attached to.
//
// Topic.Deliver calls DeliverMessage; OnMessage performs the actual handling.
// A synchronous subscriber handles inline, a queued one defers OnMessage to
// its own goroutine. OnSubscribe and OnUnsubscribe are fired by the Registry.
type Subscriber interface {
	ID() string
	OnMessage(msg *Message, topic *Topic) error
	DeliverMessage(msg *Message, topic *Topic) error
	OnSubscribe(topic *Topic)
	OnUnsubscribe(topic *Topic)
}

// Sender is implemented by subscribers that can push frames to a remote peer
// outside the regular delivery path.
type Sender interface {
	Send(frame protocol.Frame) error
}

// HandlerFunc processes a message synchronously.
type HandlerFunc func(msg *Message, topic *Topic) error

// DirectSubscriber handles every message on the delivering goroutine.
type DirectSubscriber struct {
	id      string
	handler HandlerFunc
	logger  *slog.Logger
}

// NewDirectSubscriber creates an in-process subscriber. An empty id is
// replaced with a generated one.
func NewDirectSubscriber(id string, h HandlerFunc, opts ...Option) *DirectSubscriber {
	o := newOptions(opts...)
	if id == "" {
		id = NewSubscriberID()
	}
	return &DirectSubscriber{id: id, handler: h, logger: o.logger}
}

func (s *DirectSubscriber) ID() string { return s.id }

// OnMessage runs the handler.
func (s *DirectSubscriber) OnMessage(msg *Message, topic *Topic) error {
	if s.handler == nil {
		return nil
	}
	return s.handler(msg, topic)
}

// DeliverMessage runs the handler inline.
func (s *DirectSubscriber) DeliverMessage(msg *Message, topic *Topic) error {
	return s.OnMessage(msg, topic)
}

func (s *DirectSubscriber) OnSubscribe(topic *Topic) {
	s.logger.Debug("subscribed",
		logger.Event("subscribed"),
		logger.Topic(topic.Name()),
		logger.SubscriberID(s.id),
	)
}

func (s *DirectSubscriber) OnUnsubscribe(topic *Topic) {
	s.logger.Debug("unsubscribed",
		logger.Event("unsubscribed"),
		logger.Topic(topic.Name()),
		logger.SubscriberID(s.id),
	)
}

// NewSubscriberID returns a random "sub_" prefixed id.
func NewSubscriberID() string {
	return "sub_" + shortID()
}
