package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/pubsub"
)

func TestRegistryCreateTopic(t *testing.T) {
	t.Parallel()

	rec := newMemRecorder()
	reg := pubsub.NewRegistry(pubsub.WithMetrics(rec))

	topic, err := reg.CreateTopic("orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", topic.Name())

	_, err = reg.CreateTopic("orders")
	assert.ErrorIs(t, err, pubsub.ErrTopicExists)

	_, err = reg.CreateTopic(" ")
	assert.ErrorIs(t, err, pubsub.ErrEmptyTopicName)

	got, ok := reg.GetTopic("orders")
	require.True(t, ok)
	assert.Same(t, topic, got)
	assert.Same(t, topic, reg.GetOrCreateTopic("orders"))

	_, ok = reg.GetTopic("missing")
	assert.False(t, ok)

	reg.GetOrCreateTopic("audit")
	assert.Equal(t, 2, reg.TopicCount())
	assert.Equal(t, int64(2), rec.gauge(pubsub.MetricTopics))
}

func TestRegistrySubscribe(t *testing.T) {
	t.Parallel()

	t.Run("creates topic and reuses subscriber", func(t *testing.T) {
		t.Parallel()
		reg := pubsub.NewRegistry()

		a, err := reg.Subscribe("orders", "client-1")
		require.NoError(t, err)
		b, err := reg.Subscribe("audit", "client-1")
		require.NoError(t, err)
		assert.Same(t, a, b)

		again, err := reg.Subscribe("orders", "client-1")
		require.NoError(t, err)
		assert.Same(t, a, again)

		orders, ok := reg.GetTopic("orders")
		require.True(t, ok)
		assert.Equal(t, 1, orders.SubscriberCount())
		assert.Equal(t, 2, reg.TopicCount())
		assert.Equal(t, 1, reg.TotalSubscriberCount())

		got, ok := reg.GetSubscriber("client-1")
		require.True(t, ok)
		assert.Same(t, a, got)
	})

	t.Run("generates id", func(t *testing.T) {
		t.Parallel()
		reg := pubsub.NewRegistry()
		sub, err := reg.Subscribe("orders", "")
		require.NoError(t, err)
		assert.Regexp(t, `^sub_[0-9a-f]{8}$`, sub.ID())
	})

	t.Run("rejects empty topic", func(t *testing.T) {
		t.Parallel()
		_, err := pubsub.NewRegistry().Subscribe("", "c")
		assert.ErrorIs(t, err, pubsub.ErrEmptyTopicName)
	})

	t.Run("uses configured queue capacity", func(t *testing.T) {
		t.Parallel()
		sub, err := pubsub.NewRegistry(pubsub.WithQueueCapacity(7)).Subscribe("orders", "c")
		require.NoError(t, err)
		assert.Equal(t, 7, sub.QueueCap())
	})
}

func TestRegistrySubscribeExisting(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()

	_, err := reg.SubscribeExisting("orders", "client-1")
	assert.ErrorIs(t, err, pubsub.ErrTopicNotFound)
	assert.Equal(t, 0, reg.TopicCount())
	assert.Equal(t, 0, reg.TotalSubscriberCount())

	_, err = reg.CreateTopic("orders")
	require.NoError(t, err)

	_, err = reg.SubscribeExisting("orders", "")
	assert.ErrorIs(t, err, pubsub.ErrEmptySubscriberID)

	sub, err := reg.SubscribeExisting("orders", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", sub.ID())
}

func TestRegistryUnsubscribe(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	_, err := reg.Subscribe("orders", "client-1")
	require.NoError(t, err)
	_, err = reg.CreateTopic("audit")
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Unsubscribe("missing", "client-1"), pubsub.ErrTopicNotFound)
	assert.ErrorIs(t, reg.Unsubscribe("orders", "nobody"), pubsub.ErrSubscriberNotFound)
	assert.ErrorIs(t, reg.Unsubscribe("audit", "client-1"), pubsub.ErrNotSubscribed)

	require.NoError(t, reg.Unsubscribe("orders", "client-1"))
	orders, _ := reg.GetTopic("orders")
	assert.Equal(t, 0, orders.SubscriberCount())
	assert.ErrorIs(t, reg.Unsubscribe("orders", "client-1"), pubsub.ErrNotSubscribed)

	// The subscriber stays registered.
	assert.Equal(t, 1, reg.TotalSubscriberCount())
}

func TestRegistryDeleteTopic(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	assert.ErrorIs(t, reg.DeleteTopic("orders"), pubsub.ErrTopicNotFound)

	topic, err := reg.CreateTopic("orders")
	require.NoError(t, err)

	notices := map[string]*sink{}
	for _, id := range []string{"a", "b", "c"} {
		sub, err := reg.Subscribe("orders", id)
		require.NoError(t, err)
		notices[id] = &sink{}
		sub.SetSendCallback(notices[id].send)
	}
	direct, directSub := newCollector("direct")
	topic.Subscribe(directSub)

	require.NoError(t, reg.DeleteTopic("orders"))

	_, ok := reg.GetTopic("orders")
	assert.False(t, ok)
	assert.Equal(t, 0, topic.SubscriberCount())
	for id, s := range notices {
		frames := s.snapshot()
		require.Len(t, frames, 1, id)
		assert.Equal(t, protocol.TypeInfo, frames[0].Type)
		assert.Equal(t, protocol.InfoTopicDeleted, frames[0].Msg)
		assert.Equal(t, "orders", frames[0].Topic)
	}

	// Recreating yields a fresh topic with no subscribers.
	fresh, err := reg.CreateTopic("orders")
	require.NoError(t, err)
	assert.NotSame(t, topic, fresh)
	assert.Equal(t, 0, fresh.SubscriberCount())
	assert.Equal(t, int64(0), fresh.MessagesDelivered())

	_, err = reg.Publish("orders", "after")
	require.NoError(t, err)
	assert.Empty(t, direct.messages())
}

func TestRegistryPublish(t *testing.T) {
	t.Parallel()

	rec := newMemRecorder()
	reg := pubsub.NewRegistry(pubsub.WithMetrics(rec))

	_, err := reg.Publish("orders", "x")
	assert.ErrorIs(t, err, pubsub.ErrTopicNotFound)

	_, err = reg.CreateTopic("orders")
	require.NoError(t, err)

	msg, err := reg.Publish("orders", map[string]any{"id": 1}, pubsub.WithMessageID("m-1"))
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID())
	assert.Equal(t, "orders", msg.Topic())

	_, err = reg.Publish("orders", nil)
	assert.ErrorIs(t, err, pubsub.ErrNilPayload)

	assert.Equal(t, int64(1), rec.counter(pubsub.MetricMessagesPublished))
	assert.Equal(t, pubsub.TopicStats{Messages: 1, Subscribers: 0}, reg.TopicStats()["orders"])
}

func TestRegistryListings(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	_, err := reg.CreateTopic("b")
	require.NoError(t, err)
	_, err = reg.Subscribe("a", "s1")
	require.NoError(t, err)
	_, err = reg.Subscribe("a", "s2")
	require.NoError(t, err)
	_, err = reg.Publish("a", 1)
	require.NoError(t, err)

	assert.Equal(t, []pubsub.TopicInfo{
		{Name: "a", Subscribers: 2},
		{Name: "b", Subscribers: 0},
	}, reg.ListTopics())

	assert.Equal(t, map[string]pubsub.TopicStats{
		"a": {Messages: 1, Subscribers: 2},
		"b": {Messages: 0, Subscribers: 0},
	}, reg.TopicStats())
}

func TestRegistryPublisher(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	pub := pubsub.NewRegistryPublisher("api", reg)
	assert.Equal(t, "api", pub.ID())

	_, err := pub.PublishTo("orders", "x")
	assert.ErrorIs(t, err, pubsub.ErrTopicNotFound)

	_, err = pub.Publish(nil, "x")
	assert.ErrorIs(t, err, pubsub.ErrTopicNotFound)

	topic := reg.GetOrCreateTopic("orders")
	got, sub := newCollector("c")
	topic.Subscribe(sub)

	_, err = pub.PublishTo("orders", "x", pubsub.WithMetadata(map[string]any{"source": "api"}))
	require.NoError(t, err)
	msgs := got.messages()
	require.Len(t, msgs, 1)
	v, _ := msgs[0].MetadataValue("source")
	assert.Equal(t, "api", v)
}

// End-to-end: subscribe an in-process consumer and a queued client, publish once.
func TestScenarioUserSignup(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	topic, err := reg.CreateTopic("events")
	require.NoError(t, err)

	consumer, sub := newCollector("consumer-1")
	topic.Subscribe(sub)

	payload := map[string]any{"event": "user.signup", "user_id": 101}
	_, err = pubsub.NewDirectPublisher("signup-service").Publish(topic, payload)
	require.NoError(t, err)

	msgs := consumer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0].Payload())
	assert.Equal(t, "events", msgs[0].Topic())
	assert.Equal(t, int64(1), reg.TopicStats()["events"].Messages)
}

// End-to-end: a late subscriber replays the last two of five messages.
func TestScenarioReplayOnSubscribe(t *testing.T) {
	t.Parallel()

	reg := pubsub.NewRegistry()
	_, err := reg.CreateTopic("events")
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		_, err := reg.Publish("events", i)
		require.NoError(t, err)
	}

	sub, err := reg.Subscribe("events", "late")
	require.NoError(t, err)
	topic, _ := reg.GetTopic("events")
	replay := topic.GetLastN(2)
	require.Len(t, replay, 2)
	assert.Equal(t, 4, replay[0].Payload())
	assert.Equal(t, 5, replay[1].Payload())

	// Live delivery continues after the replay.
	out := &sink{}
	sub.SetSendCallback(out.send)
	sub.StartDrain(context.Background())
	t.Cleanup(sub.StopDrain)

	_, err = reg.Publish("events", 6)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return out.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []any{6}, out.payloads())
}
