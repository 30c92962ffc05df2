package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with attrs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithProduction("pubsub"),
			logger.WithOutput(&buf),
		)
		log.Info("topic created", logger.Topic("orders"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "topic created", rec["msg"])
		assert.Equal(t, "orders", rec["topic"])
		assert.Equal(t, "pubsub", rec["service"])
		assert.Equal(t, "production", rec["env"])
	})

	t.Run("development logs debug as text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("pubsub"), logger.WithOutput(&buf))
		log.Debug("queued", logger.SubscriberID("s1"))

		assert.Contains(t, buf.String(), "msg=queued")
		assert.Contains(t, buf.String(), "subscriber_id=s1")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithLevel(slog.LevelWarn), logger.WithOutput(&buf))
		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithContextValue("request_id", ctxKey{}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.With(logger.Component("http")).InfoContext(ctx, "handled")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "req-1", rec["request_id"])
		assert.Equal(t, "http", rec["component"])
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		json bool
	}{
		{"production", true},
		{"staging", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("env_"+tt.env, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger.New(logger.WithEnvironment(tt.env, "svc"), logger.WithOutput(&buf)).Info("hello")
			assert.Equal(t, tt.json, json.Valid(bytes.TrimSpace(buf.Bytes())))
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}
