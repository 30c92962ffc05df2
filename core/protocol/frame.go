package protocol

import "time"

// TimeFormat is the layout of the ts field carried by every server frame.
const TimeFormat = "2006-01-02T15:04:05Z"

// Server frame types.
const (
	TypeAck   = "ack"
	TypeEvent = "event"
	TypeError = "error"
	TypePong  = "pong"
	TypeInfo  = "info"
)

// Client frame types.
const (
	TypePing        = "ping"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePublish     = "publish"
)

// Error codes carried in error frames.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeTopicNotFound = "TOPIC_NOT_FOUND"
	CodeSlowConsumer  = "SLOW_CONSUMER"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternal      = "INTERNAL"
)

// Info messages sent by the broker.
const (
	InfoPing         = "ping"
	InfoTopicDeleted = "topic_deleted"
)

// Frame is a server-originated WebSocket frame.
// Unused fields are omitted from the encoded form.
type Frame struct {
	Type      string        `json:"type"`
	RequestID string        `json:"request_id,omitempty"`
	Topic     string        `json:"topic,omitempty"`
	Status    string        `json:"status,omitempty"`
	Message   *EventMessage `json:"message,omitempty"`
	Error     *ErrorBody    `json:"error,omitempty"`
	Msg       string        `json:"msg,omitempty"`
	TS        string        `json:"ts"`
}

// EventMessage is the message body of an event frame.
type EventMessage struct {
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

// ErrorBody is the error body of an error frame.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Timestamp formats t in the wire layout (UTC, second precision).
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Now returns the current time in the wire layout.
func Now() string {
	return Timestamp(time.Now())
}

// NewAck confirms a client request.
func NewAck(requestID, topic string) Frame {
	return Frame{Type: TypeAck, Status: "ok", RequestID: requestID, Topic: topic, TS: Now()}
}

// NewEvent wraps a delivered message.
func NewEvent(topic, messageID string, payload any) Frame {
	return Frame{
		Type:    TypeEvent,
		Topic:   topic,
		Message: &EventMessage{ID: messageID, Payload: payload},
		TS:      Now(),
	}
}

// NewError reports a failure to the peer.
func NewError(requestID, code, message string) Frame {
	return Frame{
		Type:      TypeError,
		RequestID: requestID,
		Error:     &ErrorBody{Code: code, Message: message},
		TS:        Now(),
	}
}

// NewPong answers a client ping.
func NewPong(requestID string) Frame {
	return Frame{Type: TypePong, RequestID: requestID, TS: Now()}
}

// NewInfo builds a server notice. Topic may be empty.
func NewInfo(msg, topic string) Frame {
	return Frame{Type: TypeInfo, Msg: msg, Topic: topic, TS: Now()}
}
