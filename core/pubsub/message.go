package pubsub

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single published event. It is immutable once constructed.
type Message struct {
	id        string
	topic     string
	payload   any
	timestamp time.Time
	metadata  map[string]any
}

// MessageOption customizes message construction.
type MessageOption func(*Message)

// WithMessageID uses a caller-supplied id. Empty ids are ignored.
func WithMessageID(id string) MessageOption {
	return func(m *Message) {
		if id != "" {
			m.id = id
		}
	}
}

// WithTimestamp overrides the creation time. Zero values are ignored.
func WithTimestamp(ts time.Time) MessageOption {
	return func(m *Message) {
		if !ts.IsZero() {
			m.timestamp = ts.UTC()
		}
	}
}

// WithMetadata attaches a copy of md to the message.
func WithMetadata(md map[string]any) MessageOption {
	return func(m *Message) {
		if len(md) > 0 {
			m.metadata = maps.Clone(md)
		}
	}
}

// NewMessage builds a message for topic. Id and timestamp are assigned when
// not supplied. The generated id is unique on a best-effort basis and must
// not be used for deduplication.
func NewMessage(topic string, payload any, opts ...MessageOption) (*Message, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopicName
	}
	if payload == nil {
		return nil, ErrNilPayload
	}

	m := &Message{topic: topic, payload: payload}
	for _, opt := range opts {
		opt(m)
	}

	if m.timestamp.IsZero() {
		m.timestamp = time.Now().UTC()
	}
	if m.id == "" {
		m.id = newMessageID(topic, m.timestamp)
	}

	return m, nil
}

func newMessageID(topic string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%d", topic, shortID(), ts.UnixNano())
}

// shortID returns 8 hex characters of a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (m *Message) ID() string           { return m.id }
func (m *Message) Topic() string        { return m.topic }
func (m *Message) Payload() any         { return m.payload }
func (m *Message) Timestamp() time.Time { return m.timestamp }

// Metadata returns a copy of the message metadata.
func (m *Message) Metadata() map[string]any {
	return maps.Clone(m.metadata)
}

// MetadataValue looks up a single metadata key.
func (m *Message) MetadataValue(key string) (any, bool) {
	v, ok := m.metadata[key]
	return v, ok
}

type messageJSON struct {
	ID        string         `json:"message_id"`
	Topic     string         `json:"topic_name"`
	Payload   any            `json:"payload"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

// MarshalJSON encodes the message for logging and transport.
// Metadata keys are emitted in sorted order.
func (m *Message) MarshalJSON() ([]byte, error) {
	md := m.metadata
	if md == nil {
		md = map[string]any{}
	}
	return json.Marshal(messageJSON{
		ID:        m.id,
		Topic:     m.topic,
		Payload:   m.payload,
		Timestamp: m.timestamp.Format(time.RFC3339Nano),
		Metadata:  md,
	})
}
