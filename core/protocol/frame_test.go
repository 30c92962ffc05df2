package protocol_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/protocol"
)

func encode(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2025, 8, 25, 13, 0, 0, 999, loc)
	assert.Equal(t, "2025-08-25T10:00:00Z", protocol.Timestamp(ts))

	_, err := time.Parse(protocol.TimeFormat, protocol.Now())
	assert.NoError(t, err)
}

func TestFrames(t *testing.T) {
	t.Parallel()

	t.Run("ack", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewAck("r1", "orders"))
		assert.Equal(t, "ack", out["type"])
		assert.Equal(t, "ok", out["status"])
		assert.Equal(t, "r1", out["request_id"])
		assert.Equal(t, "orders", out["topic"])
		assert.NotEmpty(t, out["ts"])
		assert.NotContains(t, out, "error")
		assert.NotContains(t, out, "message")
	})

	t.Run("ack without request id", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewAck("", "orders"))
		assert.NotContains(t, out, "request_id")
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewEvent("orders", "m1", map[string]any{"n": 1}))
		assert.Equal(t, "event", out["type"])
		assert.Equal(t, "orders", out["topic"])
		msg, ok := out["message"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "m1", msg["id"])
		assert.Equal(t, map[string]any{"n": float64(1)}, msg["payload"])
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewError("r2", protocol.CodeTopicNotFound, "missing"))
		assert.Equal(t, "error", out["type"])
		assert.Equal(t, "r2", out["request_id"])
		assert.Equal(t, map[string]any{"code": "TOPIC_NOT_FOUND", "message": "missing"}, out["error"])
	})

	t.Run("pong", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewPong("r3"))
		assert.Equal(t, "pong", out["type"])
		assert.Equal(t, "r3", out["request_id"])
	})

	t.Run("info", func(t *testing.T) {
		t.Parallel()
		out := encode(t, protocol.NewInfo(protocol.InfoTopicDeleted, "orders"))
		assert.Equal(t, "info", out["type"])
		assert.Equal(t, "topic_deleted", out["msg"])
		assert.Equal(t, "orders", out["topic"])

		ping := encode(t, protocol.NewInfo(protocol.InfoPing, ""))
		assert.NotContains(t, ping, "topic")
	})
}

func TestRequestDecoding(t *testing.T) {
	t.Parallel()

	raw := `{"type":"publish","request_id":"r9","topic":"orders","message":{"id":"m1","payload":{"a":"b"}}}`
	var req protocol.Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	assert.Equal(t, protocol.TypePublish, req.Type)
	assert.Equal(t, "r9", req.RequestID)
	require.NotNil(t, req.Message)
	assert.Equal(t, "m1", req.Message.ID)
	assert.Equal(t, map[string]any{"a": "b"}, req.Message.Payload)
}
