package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/pkg/async"
)

// SendFunc pushes a frame to the remote peer of a client subscriber.
// It must not block for long: it runs on the drain goroutine.
type SendFunc func(frame protocol.Frame) error

type delivery struct {
	msg   *Message
	topic *Topic
}

// ClientSubscriber queues deliveries and forwards them to a transport from a
// dedicated drain goroutine.
//
// DeliverMessage never blocks: when the queue is full the oldest queued
// message is dropped to make room. The queue fills while no transport is
// attached and is drained once StartDrain is called.
type ClientSubscriber struct {
	id      string
	queue   chan delivery
	logger  *slog.Logger
	metrics Recorder

	send    atomic.Pointer[SendFunc]
	closed  atomic.Bool
	dropped atomic.Int64

	mu     sync.Mutex
	owner  any // transport holding the send callback, set by Attach
	cancel context.CancelFunc
	drain  *async.ExecFuture
}

// NewClientSubscriber creates a queued subscriber. An empty id is replaced
// with a generated one.
func NewClientSubscriber(id string, opts ...Option) *ClientSubscriber {
	o := newOptions(opts...)
	if id == "" {
		id = NewSubscriberID()
	}
	return &ClientSubscriber{
		id:      id,
		queue:   make(chan delivery, o.queueCapacity),
		logger:  o.logger,
		metrics: o.metrics,
	}
}

func (c *ClientSubscriber) ID() string { return c.id }

// DeliverMessage enqueues msg. It is safe for concurrent use and never
// returns an error; overflow is resolved by dropping the oldest entry.
func (c *ClientSubscriber) DeliverMessage(msg *Message, topic *Topic) error {
	if c.closed.Load() {
		return nil
	}

	item := delivery{msg: msg, topic: topic}
	select {
	case c.queue <- item:
		return nil
	default:
	}

	// Full. Evict the oldest entry and retry; a concurrent producer may take
	// the freed slot first, so allow one more attempt.
	for range 2 {
		select {
		case old := <-c.queue:
			c.dropped.Add(1)
			c.metrics.Increment(MetricMessagesDropped, 1)
			c.logger.Warn("subscriber queue full, dropped oldest message",
				logger.Event("queue_full_dropped_oldest"),
				logger.SubscriberID(c.id),
				logger.Topic(old.topic.Name()),
				logger.MessageID(old.msg.ID()),
			)
		default:
		}

		select {
		case c.queue <- item:
			return nil
		default:
		}
	}

	c.dropped.Add(1)
	c.metrics.Increment(MetricMessagesDropped, 1)
	c.logger.Error("failed to enqueue message after eviction",
		logger.Event("queue_evict_failed"),
		logger.SubscriberID(c.id),
		logger.Topic(topic.Name()),
		logger.MessageID(msg.ID()),
	)
	return nil
}

// OnMessage formats msg as an event frame and hands it to the send callback.
// Without an attached callback the message is discarded.
func (c *ClientSubscriber) OnMessage(msg *Message, topic *Topic) error {
	send := c.send.Load()
	if send == nil {
		return nil
	}
	return (*send)(protocol.NewEvent(topic.Name(), msg.ID(), msg.Payload()))
}

// Send pushes an out-of-band frame through the send callback, if attached.
func (c *ClientSubscriber) Send(frame protocol.Frame) error {
	send := c.send.Load()
	if send == nil {
		return nil
	}
	return (*send)(frame)
}

// SetSendCallback attaches a transport. It does not start draining.
// Passing nil detaches the transport and stops the drain goroutine.
func (c *ClientSubscriber) SetSendCallback(fn SendFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.owner = nil
	if fn == nil {
		c.send.Store(nil)
		c.stopLocked()
		return
	}
	c.send.Store(&fn)
}

// Attach hands the subscriber to the transport identified by owner: fn
// becomes the send callback and draining runs under ctx. When owner differs
// from the current one, the previous drain goroutine is replaced so it no
// longer depends on the old transport's context. owner must be comparable.
func (c *ClientSubscriber) Attach(ctx context.Context, owner any, fn SendFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := c.owner != owner
	c.owner = owner
	c.send.Store(&fn)
	if changed && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.startLocked(ctx)
}

// Detach releases the subscriber if owner still holds it, stopping the drain
// and discarding later deliveries. It reports whether owner was the holder;
// a transport that was superseded by a newer Attach leaves it untouched.
func (c *ClientSubscriber) Detach(owner any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owner == nil || c.owner != owner {
		return false
	}
	c.owner = nil
	c.send.Store(nil)
	c.stopLocked()
	return true
}

// StartDrain starts the drain goroutine. It is a no-op while one is running.
// The goroutine stops when StopDrain is called or ctx is cancelled.
func (c *ClientSubscriber) StartDrain(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(ctx)
}

func (c *ClientSubscriber) startLocked(ctx context.Context) {
	if c.runningLocked() {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	// A previous loop may still be finishing its last item.
	if c.drain != nil {
		_ = c.drain.Await()
	}

	c.closed.Store(false)
	drainCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.drain = async.Exec(drainCtx, c.queue, c.run)
}

// StopDrain marks the subscriber closed and stops the drain goroutine.
// Messages delivered afterwards are discarded. Safe to call repeatedly and
// from any goroutine.
func (c *ClientSubscriber) StopDrain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *ClientSubscriber) stopLocked() {
	c.closed.Store(true)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// IsDraining reports whether the drain goroutine is running.
func (c *ClientSubscriber) IsDraining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *ClientSubscriber) runningLocked() bool {
	return c.cancel != nil && c.drain != nil && !c.drain.IsComplete()
}

// Closed reports whether StopDrain has been called since the last StartDrain.
func (c *ClientSubscriber) Closed() bool { return c.closed.Load() }

// QueueLen returns the number of queued deliveries.
func (c *ClientSubscriber) QueueLen() int { return len(c.queue) }

// QueueCap returns the queue capacity.
func (c *ClientSubscriber) QueueCap() int { return cap(c.queue) }

// Dropped returns how many messages were discarded because of overflow.
func (c *ClientSubscriber) Dropped() int64 { return c.dropped.Load() }

func (c *ClientSubscriber) OnSubscribe(topic *Topic) {
	c.logger.Debug("subscribed",
		logger.Event("subscribed"),
		logger.Topic(topic.Name()),
		logger.SubscriberID(c.id),
	)
}

func (c *ClientSubscriber) OnUnsubscribe(topic *Topic) {
	c.logger.Debug("unsubscribed",
		logger.Event("unsubscribed"),
		logger.Topic(topic.Name()),
		logger.SubscriberID(c.id),
	)
}

func (c *ClientSubscriber) run(ctx context.Context, queue chan delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-queue:
			c.handle(item)
		}
	}
}

func (c *ClientSubscriber) handle(item delivery) {
	defer func() {
		if p := recover(); p != nil {
			c.logDrainError(item, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := c.OnMessage(item.msg, item.topic); err != nil {
		c.logDrainError(item, err)
	}
}

func (c *ClientSubscriber) logDrainError(item delivery, err error) {
	c.metrics.Increment(MetricDeliveryFailures, 1)
	c.logger.Error("drain failed to forward message",
		logger.Event("drain_error"),
		logger.SubscriberID(c.id),
		logger.Topic(item.topic.Name()),
		logger.MessageID(item.msg.ID()),
		logger.Error(err),
	)
}
