package protocol

// Request is a client-originated WebSocket frame.
type Request struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	LastN     int             `json:"last_n,omitempty"`
	Message   *PublishMessage `json:"message,omitempty"`
}

// PublishMessage is the message body of a publish request.
type PublishMessage struct {
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload"`
}
