package pubsub

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/pubsub/core/logger"
)

// Topic is a named channel that owns a subscriber set and a replay buffer.
// Topics are created and destroyed by a Registry.
type Topic struct {
	name string

	mu          sync.Mutex
	subscribers []Subscriber // insertion order, unique by ID
	replay      *ring[*Message]

	delivered atomic.Int64

	logger  *slog.Logger
	metrics Recorder
}

func newTopic(name string, o options) *Topic {
	return &Topic{
		name:    name,
		replay:  newRing[*Message](o.replayCapacity),
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Name returns the topic name.
func (t *Topic) Name() string {
	return t.name
}

// Subscribe attaches sub. Attaching an already attached subscriber is a no-op.
func (t *Topic) Subscribe(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexOf(sub.ID()) >= 0 {
		return
	}
	t.subscribers = append(t.subscribers, sub)
}

// Unsubscribe detaches sub. Detaching an absent subscriber is a no-op.
func (t *Topic) Unsubscribe(sub Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexOf(sub.ID()); i >= 0 {
		t.subscribers = slices.Delete(t.subscribers, i, i+1)
	}
}

// HasSubscriber reports whether a subscriber with id is attached.
func (t *Topic) HasSubscriber(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexOf(id) >= 0
}

// indexOf must be called with t.mu held.
func (t *Topic) indexOf(id string) int {
	return slices.IndexFunc(t.subscribers, func(s Subscriber) bool { return s.ID() == id })
}

// Deliver records msg in the replay buffer and hands it to every subscriber
// attached at the time of the call. Subscriber hooks run without the topic
// lock held, so they may subscribe or unsubscribe themselves. A failing or
// panicking subscriber does not affect the others.
func (t *Topic) Deliver(msg *Message) {
	t.mu.Lock()
	targets := slices.Clone(t.subscribers)
	t.replay.push(msg)
	t.mu.Unlock()

	t.delivered.Add(1)
	t.metrics.Increment(MetricMessagesDelivered, 1)

	for _, sub := range targets {
		if err := t.deliverTo(sub, msg); err != nil {
			t.metrics.Increment(MetricDeliveryFailures, 1)
			t.logger.Error("delivery failed",
				logger.Event("delivery_failed"),
				logger.Topic(t.name),
				logger.MessageID(msg.ID()),
				logger.SubscriberID(sub.ID()),
				logger.Error(err),
			)
		}
	}
}

func (t *Topic) deliverTo(sub Subscriber, msg *Message) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panic: %v", p)
		}
	}()
	return sub.DeliverMessage(msg, t)
}

// GetLastN returns up to n of the most recently delivered messages, oldest first.
func (t *Topic) GetLastN(n int) []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replay.last(n)
}

// ReplaySize returns the number of buffered messages.
func (t *Topic) ReplaySize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replay.count()
}

// ReplayCapacity returns the maximum number of buffered messages.
func (t *Topic) ReplayCapacity() int {
	return t.replay.capacity()
}

// SubscriberCount returns the number of attached subscribers.
func (t *Topic) SubscriberCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

// Subscribers returns a snapshot of the attached subscribers.
func (t *Topic) Subscribers() []Subscriber {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.subscribers)
}

// MessagesDelivered returns how many messages have been delivered to the topic.
func (t *Topic) MessagesDelivered() int64 {
	return t.delivered.Load()
}

// detachAll empties the subscriber set and returns what was attached.
func (t *Topic) detachAll() []Subscriber {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subscribers
	t.subscribers = nil
	return subs
}
