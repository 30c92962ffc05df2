package pubsub

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
)

// TopicInfo summarizes a topic for listings.
type TopicInfo struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// TopicStats holds per-topic counters.
type TopicStats struct {
	Messages    int64 `json:"messages"`
	Subscribers int   `json:"subscribers"`
}

// Registry is the directory of topics and client subscribers. It is the only
// place where topics are created or destroyed and where names and ids are
// resolved. Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	topics      map[string]*Topic
	subscribers map[string]*ClientSubscriber

	opts      options
	publisher *RegistryPublisher
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		topics:      make(map[string]*Topic),
		subscribers: make(map[string]*ClientSubscriber),
		opts:        newOptions(opts...),
	}
	r.publisher = NewRegistryPublisher("registry", r)
	return r
}

// CreateTopic registers a new topic. It returns ErrTopicExists if the name is taken.
func (r *Registry) CreateTopic(name string) (*Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyTopicName
	}

	r.mu.Lock()
	if _, ok := r.topics[name]; ok {
		r.mu.Unlock()
		return nil, ErrTopicExists
	}
	t := newTopic(name, r.opts)
	r.topics[name] = t
	count := len(r.topics)
	r.mu.Unlock()

	r.opts.metrics.SetGauge(MetricTopics, int64(count))
	r.opts.logger.Info("topic created", logger.Event("topic_created"), logger.Topic(name))
	return t, nil
}

// GetOrCreateTopic returns the named topic, creating it if needed.
func (r *Registry) GetOrCreateTopic(name string) *Topic {
	r.mu.RLock()
	t, ok := r.topics[name]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	t = r.getOrCreateLocked(name)
	count := len(r.topics)
	r.mu.Unlock()

	r.opts.metrics.SetGauge(MetricTopics, int64(count))
	return t
}

func (r *Registry) getOrCreateLocked(name string) *Topic {
	if t, ok := r.topics[name]; ok {
		return t
	}
	t := newTopic(name, r.opts)
	r.topics[name] = t
	return t
}

// GetTopic looks up a topic by name.
func (r *Registry) GetTopic(name string) (*Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.topics[name]
	return t, ok
}

// DeleteTopic removes the topic and detaches every subscriber. Subscribers
// that can send out of band receive an info frame with msg "topic_deleted".
// It returns ErrTopicNotFound if the topic does not exist.
func (r *Registry) DeleteTopic(name string) error {
	r.mu.Lock()
	t, ok := r.topics[name]
	if !ok {
		r.mu.Unlock()
		return ErrTopicNotFound
	}
	delete(r.topics, name)
	count := len(r.topics)
	r.mu.Unlock()

	subs := t.detachAll()
	notice := protocol.NewInfo(protocol.InfoTopicDeleted, name)
	for _, sub := range subs {
		if s, ok := sub.(Sender); ok {
			if err := s.Send(notice); err != nil {
				r.opts.logger.Warn("failed to notify subscriber about deleted topic",
					logger.Topic(name),
					logger.SubscriberID(sub.ID()),
					logger.Error(err),
				)
			}
		}
		sub.OnUnsubscribe(t)
	}

	r.opts.metrics.SetGauge(MetricTopics, int64(count))
	r.opts.logger.Info("topic deleted",
		logger.Event("topic_deleted"),
		logger.Topic(name),
		logger.Count("subscribers", len(subs)),
	)
	return nil
}

// Subscribe attaches a client subscriber to the named topic, creating the
// topic when absent. An existing subscriber with the same id is reused; an
// empty id is replaced with a generated one.
func (r *Registry) Subscribe(topicName, subscriberID string) (*ClientSubscriber, error) {
	if strings.TrimSpace(topicName) == "" {
		return nil, ErrEmptyTopicName
	}

	r.mu.Lock()
	t := r.getOrCreateLocked(topicName)
	if subscriberID == "" {
		subscriberID = NewSubscriberID()
	}
	sub := r.subscriberLocked(subscriberID)
	t.Subscribe(sub)
	topics, subs := len(r.topics), len(r.subscribers)
	r.mu.Unlock()

	sub.OnSubscribe(t)
	r.opts.metrics.SetGauge(MetricTopics, int64(topics))
	r.opts.metrics.SetGauge(MetricSubscribers, int64(subs))
	return sub, nil
}

// SubscribeExisting attaches a client subscriber to a topic that must already
// exist. It returns ErrTopicNotFound otherwise.
func (r *Registry) SubscribeExisting(topicName, clientID string) (*ClientSubscriber, error) {
	if clientID == "" {
		return nil, ErrEmptySubscriberID
	}

	r.mu.Lock()
	t, ok := r.topics[topicName]
	if !ok {
		r.mu.Unlock()
		return nil, ErrTopicNotFound
	}
	sub := r.subscriberLocked(clientID)
	t.Subscribe(sub)
	subs := len(r.subscribers)
	r.mu.Unlock()

	sub.OnSubscribe(t)
	r.opts.metrics.SetGauge(MetricSubscribers, int64(subs))
	return sub, nil
}

func (r *Registry) subscriberLocked(id string) *ClientSubscriber {
	if sub, ok := r.subscribers[id]; ok {
		return sub
	}
	sub := NewClientSubscriber(id,
		WithLogger(r.opts.logger),
		WithMetrics(r.opts.metrics),
		WithQueueCapacity(r.opts.queueCapacity),
	)
	r.subscribers[id] = sub
	return sub
}

// Unsubscribe detaches a client subscriber from a topic. The subscriber stays
// registered and keeps its other subscriptions.
func (r *Registry) Unsubscribe(topicName, clientID string) error {
	r.mu.Lock()
	t, ok := r.topics[topicName]
	if !ok {
		r.mu.Unlock()
		return ErrTopicNotFound
	}
	sub, ok := r.subscribers[clientID]
	if !ok {
		r.mu.Unlock()
		return ErrSubscriberNotFound
	}
	if !t.HasSubscriber(clientID) {
		r.mu.Unlock()
		return ErrNotSubscribed
	}
	t.Unsubscribe(sub)
	r.mu.Unlock()

	sub.OnUnsubscribe(t)
	return nil
}

// GetSubscriber looks up a client subscriber by id.
func (r *Registry) GetSubscriber(id string) (*ClientSubscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subscribers[id]
	return sub, ok
}

// Publish delivers payload to the named topic.
// It returns ErrTopicNotFound when the topic does not exist.
func (r *Registry) Publish(topicName string, payload any, opts ...MessageOption) (*Message, error) {
	return r.publisher.PublishTo(topicName, payload, opts...)
}

// ListTopics returns every topic with its subscriber count, sorted by name.
func (r *Registry) ListTopics() []TopicInfo {
	topics := r.snapshot()
	out := make([]TopicInfo, 0, len(topics))
	for _, t := range topics {
		out = append(out, TopicInfo{Name: t.Name(), Subscribers: t.SubscriberCount()})
	}
	slices.SortFunc(out, func(a, b TopicInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// TopicStats returns delivery and subscriber counters keyed by topic name.
func (r *Registry) TopicStats() map[string]TopicStats {
	topics := r.snapshot()
	out := make(map[string]TopicStats, len(topics))
	for _, t := range topics {
		out[t.Name()] = TopicStats{
			Messages:    t.MessagesDelivered(),
			Subscribers: t.SubscriberCount(),
		}
	}
	return out
}

// TopicCount returns the number of topics.
func (r *Registry) TopicCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}

// TotalSubscriberCount returns the number of registered client subscribers,
// regardless of how many topics each is attached to.
func (r *Registry) TotalSubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

func (r *Registry) snapshot() []*Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Topic, 0, len(r.topics))
	for _, t := range r.topics {
		out = append(out, t)
	}
	return out
}
