package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/metrics"
	"github.com/dmitrymomot/pubsub/core/pubsub"
)

var _ pubsub.Recorder = (*metrics.Store)(nil)

func TestStore(t *testing.T) {
	t.Parallel()

	s := metrics.New()
	s.Increment("messages_published_total", 2)
	s.Increment("messages_published_total", 1)
	s.Increment("messages_published_total", -5)
	s.SetGauge("topics", 4)
	s.SetGauge("topics", 3)

	assert.Equal(t, int64(3), s.Counter("messages_published_total"))
	assert.Equal(t, int64(3), s.Gauge("topics"))
	assert.Equal(t, int64(0), s.Counter("unknown"))

	snap := s.Snapshot()
	assert.Equal(t, map[string]int64{"messages_published_total": 3}, snap.Counters)
	assert.Equal(t, map[string]int64{"topics": 3}, snap.Gauges)

	snap.Counters["messages_published_total"] = 100
	assert.Equal(t, int64(3), s.Counter("messages_published_total"))
}

func TestStoreConcurrentIncrement(t *testing.T) {
	t.Parallel()

	s := metrics.New()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Increment("hits_total", 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), s.Counter("hits_total"))
}

func TestStoreCollector(t *testing.T) {
	t.Parallel()

	s := metrics.New(metrics.WithNamespace("broker"))
	s.Increment("messages_dropped_total", 7)
	s.SetGauge("subscribers", 2)

	families, err := s.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		"broker_messages_dropped_total": 7,
		"broker_subscribers":            2,
	}, values)
}

func TestStoreHandler(t *testing.T) {
	t.Parallel()

	s := metrics.New()
	s.Increment("messages_published_total", 5)
	s.SetGauge("topics", 1)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pubsub_messages_published_total 5")
	assert.Contains(t, string(body), "# TYPE pubsub_topics gauge")
	assert.Contains(t, string(body), "pubsub_topics 1")
}
