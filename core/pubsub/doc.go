// Package pubsub implements an in-memory publish/subscribe broker.
//
// A Registry owns named topics and client subscribers. Each Topic keeps its
// own subscriber set and a bounded replay buffer, so fan-out on one topic
// never contends with another and no registry lock is held during delivery.
//
// Two kinds of subscriber are provided:
//
//   - DirectSubscriber runs a handler on the publishing goroutine.
//   - ClientSubscriber buffers deliveries in a bounded queue and forwards
//     them to a transport from its own goroutine. When the queue is full the
//     oldest message is dropped, so publishers never block on slow consumers.
//
// Basic usage:
//
//	reg := pubsub.NewRegistry(pubsub.WithLogger(log))
//
//	if _, err := reg.CreateTopic("orders"); err != nil {
//		return err
//	}
//
//	sub, _ := reg.Subscribe("orders", "billing")
//	sub.SetSendCallback(func(f protocol.Frame) error {
//		return conn.WriteJSON(f)
//	})
//	sub.StartDrain(ctx)
//	defer sub.StopDrain()
//
//	_, err := reg.Publish("orders", map[string]any{"id": 42})
//
// Transports that share a client id across reconnects use Attach and Detach
// with an owner token instead, so a stale connection cannot detach the newer one.
//
// In-process consumers attach directly to a topic:
//
//	topic := reg.GetOrCreateTopic("audit")
//	topic.Subscribe(pubsub.NewDirectSubscriber("auditor", func(m *pubsub.Message, t *pubsub.Topic) error {
//		return store.Append(m)
//	}))
//
// Ordering is FIFO per topic and subscriber. Message ids are unique on a
// best-effort basis only.
package pubsub
