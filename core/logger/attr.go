package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Attribute helpers return an empty Attr for missing values, so calls like
// log.Info("msg", logger.Error(err)) need no nil checks. slog drops empty
// attributes.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Uptime creates an attribute for process uptime.
func Uptime(start time.Time) slog.Attr {
	return slog.Duration("uptime", time.Since(start))
}

// RequestID creates an attribute for HTTP request IDs.
func RequestID(id string) slog.Attr {
	return nonEmpty("request_id", id)
}

// ============================================================================
// Broker identifiers
// ============================================================================

// Topic creates an attribute for a topic name.
func Topic(name string) slog.Attr {
	return nonEmpty("topic", name)
}

// MessageID creates an attribute for a message id.
func MessageID(id string) slog.Attr {
	return nonEmpty("message_id", id)
}

// SubscriberID creates an attribute for a subscriber id.
func SubscriberID(id string) slog.Attr {
	return nonEmpty("subscriber_id", id)
}

// PublisherID creates an attribute for a publisher id.
func PublisherID(id string) slog.Attr {
	return nonEmpty("publisher_id", id)
}

// ConnID creates an attribute for a transport connection id.
func ConnID(id string) slog.Attr {
	return nonEmpty("conn_id", id)
}

// FrameType creates an attribute for a wire frame type.
func FrameType(t string) slog.Attr {
	return nonEmpty("frame_type", t)
}

// ============================================================================
// HTTP
// ============================================================================

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Query creates an attribute for a raw query string.
func Query(q string) slog.Attr {
	return nonEmpty("query", q)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// RemoteAddr creates an attribute for the peer address.
func RemoteAddr(addr string) slog.Attr {
	return nonEmpty("remote_addr", addr)
}

// BytesOut creates an attribute for outgoing bytes.
func BytesOut(n int64) slog.Attr {
	return slog.Int64("bytes_out", n)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event creates an attribute for event names.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

func nonEmpty(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
