package pubsub

import (
	"io"
	"log/slog"
)

const (
	// DefaultReplayCapacity is the number of messages each topic keeps for replay.
	DefaultReplayCapacity = 100

	// DefaultQueueCapacity is the size of a client subscriber's delivery queue.
	DefaultQueueCapacity = 1024
)

// Metric names reported through Recorder.
const (
	MetricMessagesPublished = "messages_published_total"
	MetricMessagesDelivered = "messages_delivered_total"
	MetricMessagesDropped   = "messages_dropped_total"
	MetricDeliveryFailures  = "delivery_failures_total"
	MetricTopics            = "topics"
	MetricSubscribers       = "subscribers"
)

// Recorder receives broker counters and gauges.
type Recorder interface {
	Increment(name string, delta int64)
	SetGauge(name string, value int64)
}

type noopRecorder struct{}

func (noopRecorder) Increment(string, int64) {}
func (noopRecorder) SetGauge(string, int64)  {}

type options struct {
	logger         *slog.Logger
	metrics        Recorder
	replayCapacity int
	queueCapacity  int
}

func newOptions(opts ...Option) options {
	o := options{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:        noopRecorder{},
		replayCapacity: DefaultReplayCapacity,
		queueCapacity:  DefaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Registry and the topics and subscribers it creates.
// The same options are accepted by NewDirectSubscriber and NewClientSubscriber.
type Option func(*options)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder. Nil is ignored.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithReplayCapacity sets how many messages each topic retains for replay.
// Values below 1 are ignored.
func WithReplayCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.replayCapacity = n
		}
	}
}

// WithQueueCapacity sets the delivery queue size of client subscribers.
// Values below 1 are ignored.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}
