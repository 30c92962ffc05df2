package pubsub_test

import (
	"sync"

	"github.com/dmitrymomot/pubsub/core/pubsub"
)

// collector records messages seen by a direct subscriber.
type collector struct {
	mu   sync.Mutex
	msgs []*pubsub.Message
}

func (c *collector) handle(msg *pubsub.Message, _ *pubsub.Topic) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *collector) messages() []*pubsub.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*pubsub.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *collector) payloads() []any {
	msgs := c.messages()
	out := make([]any, len(msgs))
	for i, m := range msgs {
		out[i] = m.Payload()
	}
	return out
}

func newCollector(id string) (*collector, *pubsub.DirectSubscriber) {
	c := &collector{}
	return c, pubsub.NewDirectSubscriber(id, c.handle)
}

// memRecorder is an in-memory pubsub.Recorder.
type memRecorder struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
}

func newMemRecorder() *memRecorder {
	return &memRecorder{counters: map[string]int64{}, gauges: map[string]int64{}}
}

func (r *memRecorder) Increment(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

func (r *memRecorder) SetGauge(name string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
}

func (r *memRecorder) counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

func (r *memRecorder) gauge(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[name]
}
