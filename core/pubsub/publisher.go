package pubsub

import (
	"log/slog"

	"github.com/dmitrymomot/pubsub/core/logger"
)

// Publisher builds messages and delivers them to topics.
type Publisher interface {
	ID() string
	Publish(topic *Topic, payload any, opts ...MessageOption) (*Message, error)
	OnPublish(msg *Message, topic *Topic)
}

// DirectPublisher publishes to topics the caller already holds.
type DirectPublisher struct {
	id      string
	logger  *slog.Logger
	metrics Recorder
}

// NewDirectPublisher creates an in-process publisher.
func NewDirectPublisher(id string, opts ...Option) *DirectPublisher {
	o := newOptions(opts...)
	return &DirectPublisher{id: id, logger: o.logger, metrics: o.metrics}
}

func (p *DirectPublisher) ID() string { return p.id }

// Publish delivers payload to topic. It fails only for a nil topic or invalid input.
func (p *DirectPublisher) Publish(topic *Topic, payload any, opts ...MessageOption) (*Message, error) {
	return publish(p, topic, payload, opts...)
}

func (p *DirectPublisher) OnPublish(msg *Message, topic *Topic) {
	logPublish(p.logger, p.metrics, p.id, msg, topic)
}

// RegistryPublisher resolves topics by name through a Registry.
type RegistryPublisher struct {
	id       string
	registry *Registry
	logger   *slog.Logger
	metrics  Recorder
}

// NewRegistryPublisher creates a publisher bound to r.
func NewRegistryPublisher(id string, r *Registry) *RegistryPublisher {
	return &RegistryPublisher{id: id, registry: r, logger: r.opts.logger, metrics: r.opts.metrics}
}

func (p *RegistryPublisher) ID() string { return p.id }

// Publish delivers payload to topic.
func (p *RegistryPublisher) Publish(topic *Topic, payload any, opts ...MessageOption) (*Message, error) {
	return publish(p, topic, payload, opts...)
}

// PublishTo delivers payload to the named topic.
// It returns ErrTopicNotFound when the topic does not exist.
func (p *RegistryPublisher) PublishTo(name string, payload any, opts ...MessageOption) (*Message, error) {
	topic, ok := p.registry.GetTopic(name)
	if !ok {
		return nil, ErrTopicNotFound
	}
	return publish(p, topic, payload, opts...)
}

func (p *RegistryPublisher) OnPublish(msg *Message, topic *Topic) {
	logPublish(p.logger, p.metrics, p.id, msg, topic)
}

func publish(p Publisher, topic *Topic, payload any, opts ...MessageOption) (*Message, error) {
	if topic == nil {
		return nil, ErrTopicNotFound
	}
	msg, err := NewMessage(topic.Name(), payload, opts...)
	if err != nil {
		return nil, err
	}
	p.OnPublish(msg, topic)
	topic.Deliver(msg)
	return msg, nil
}

func logPublish(log *slog.Logger, metrics Recorder, publisherID string, msg *Message, topic *Topic) {
	metrics.Increment(MetricMessagesPublished, 1)
	log.Debug("message published",
		logger.Event("published"),
		logger.Topic(topic.Name()),
		logger.MessageID(msg.ID()),
		logger.PublisherID(publisherID),
	)
}
