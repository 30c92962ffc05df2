package metrics

import (
	"maps"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every exported metric name.
const DefaultNamespace = "pubsub"

// Snapshot is a point-in-time copy of all counters and gauges.
type Snapshot struct {
	Counters map[string]int64 `json:"counters"`
	Gauges   map[string]int64 `json:"gauges"`
}

// Store keeps named counters and gauges in memory and exposes them to
// Prometheus. Names are created on first use. Safe for concurrent use.
type Store struct {
	namespace string
	registry  *prometheus.Registry

	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]int64
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithRuntimeCollectors adds Go runtime and process metrics to the registry.
func WithRuntimeCollectors() Option {
	return func(s *Store) {
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates a store registered on its own Prometheus registry.
func New(opts ...Option) *Store {
	s := &Store{
		namespace: DefaultNamespace,
		registry:  prometheus.NewRegistry(),
		counters:  make(map[string]int64),
		gauges:    make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry.MustRegister(s)
	return s
}

// Increment adds delta to the named counter. Negative deltas are ignored.
func (s *Store) Increment(name string, delta int64) {
	if delta < 0 {
		return
	}
	s.mu.Lock()
	s.counters[name] += delta
	s.mu.Unlock()
}

// SetGauge sets the named gauge.
func (s *Store) SetGauge(name string, value int64) {
	s.mu.Lock()
	s.gauges[name] = value
	s.mu.Unlock()
}

// Counter returns the current counter value, 0 when unknown.
func (s *Store) Counter(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[name]
}

// Gauge returns the current gauge value, 0 when unknown.
func (s *Store) Gauge(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gauges[name]
}

// Snapshot copies all values.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Counters: maps.Clone(s.counters),
		Gauges:   maps.Clone(s.gauges),
	}
}

// Registry returns the Prometheus registry the store is registered on.
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Store) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Describe sends nothing: the set of metrics grows at runtime, which makes
// the store an unchecked collector.
func (s *Store) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	snap := s.Snapshot()
	for name, v := range snap.Counters {
		desc := prometheus.NewDesc(s.fqName(name), "Broker counter "+name+".", nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}
	for name, v := range snap.Gauges {
		desc := prometheus.NewDesc(s.fqName(name), "Broker gauge "+name+".", nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
	}
}

func (s *Store) fqName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return prometheus.BuildFQName(s.namespace, "", clean)
}
