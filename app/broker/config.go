package broker

import (
	"time"

	"github.com/dmitrymomot/pubsub/core/config"
	"github.com/dmitrymomot/pubsub/core/pubsub"
	"github.com/dmitrymomot/pubsub/core/response"
	"github.com/dmitrymomot/pubsub/core/server"
	"github.com/dmitrymomot/pubsub/middleware"
)

// Config holds the broker process configuration. Every field can be set from
// the environment or a .env file.
type Config struct {
	Server server.Config

	AppName  string `env:"APP_NAME" envDefault:"pubsub"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// APIKey is the pre-shared X-API-Key value. Blank refuses every request.
	APIKey string `env:"API_KEY"`

	// HeartbeatIntervalSec is the info ping period. Zero or less disables it.
	HeartbeatIntervalSec float64 `env:"HEARTBEAT_INTERVAL_SEC" envDefault:"30"`

	SubscriberQueueSize int `env:"SUBSCRIBER_QUEUE_MAX_SIZE" envDefault:"1024"`
	ReplayBufferSize    int `env:"TOPIC_RING_BUFFER_SIZE" envDefault:"100"`

	WSWriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSOutboundBuffer   int           `env:"WS_OUTBOUND_BUFFER" envDefault:"256"`
	WSReadBuffer       int           `env:"WS_READ_BUFFER" envDefault:"1024"`
	WSWriteBuffer      int           `env:"WS_WRITE_BUFFER" envDefault:"1024"`
	WSHandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`

	MaxBodySize int64 `env:"HTTP_MAX_BODY_SIZE" envDefault:"1048576"`
}

// DefaultConfig mirrors the envDefault values. APIKey is left blank.
func DefaultConfig() Config {
	return Config{
		Server:               server.DefaultConfig(),
		AppName:              "pubsub",
		Env:                  "development",
		LogLevel:             "info",
		HeartbeatIntervalSec: 30,
		SubscriberQueueSize:  pubsub.DefaultQueueCapacity,
		ReplayBufferSize:     pubsub.DefaultReplayCapacity,
		WSWriteTimeout:       10 * time.Second,
		WSOutboundBuffer:     256,
		WSReadBuffer:         response.DefaultWSReadBuffer,
		WSWriteBuffer:        response.DefaultWSWriteBuffer,
		WSHandshakeTimeout:   10 * time.Second,
		MaxBodySize:          middleware.DefaultBodyLimit,
	}
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HeartbeatInterval converts HeartbeatIntervalSec. Zero means disabled.
func (c Config) HeartbeatInterval() time.Duration {
	if c.HeartbeatIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.HeartbeatIntervalSec * float64(time.Second))
}
