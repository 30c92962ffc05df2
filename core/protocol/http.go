package protocol

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	UptimeSec   int64 `json:"uptime_sec"`
	Topics      int   `json:"topics"`
	Subscribers int   `json:"subscribers"`
}

// SubscribeRequest is the body of an HTTP subscribe call.
type SubscribeRequest struct {
	Topic        string `json:"topic"`
	SubscriberID string `json:"subscriber_id,omitempty"`
	LastN        int    `json:"last_n,omitempty"`
}

// SubscribeResponse answers subscribe and unsubscribe calls.
// Replay is present only when messages were requested.
type SubscribeResponse struct {
	OK           bool    `json:"ok"`
	Topic        string  `json:"topic"`
	SubscriberID string  `json:"subscriber_id,omitempty"`
	Error        string  `json:"error,omitempty"`
	Replay       []Frame `json:"replay,omitempty"`
}

// CreateTopicRequest is the body of a create topic call.
type CreateTopicRequest struct {
	Name string `json:"name"`
}

// TopicStatusResponse reports a topic lifecycle change ("created" or "deleted").
type TopicStatusResponse struct {
	Status string `json:"status"`
	Topic  string `json:"topic"`
}

// PublishRequest is the body of an HTTP publish call.
type PublishRequest struct {
	Topic   string          `json:"topic"`
	Message *PublishMessage `json:"message"`
}

// PublishResponse echoes the published message.
type PublishResponse struct {
	OK      bool         `json:"ok"`
	Topic   string       `json:"topic"`
	Message EventMessage `json:"message"`
}

// ErrorResponse is the flat error body used by the topic endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Topic   string `json:"topic,omitempty"`
}
