package pubsub

import "errors"

var (
	// Lookup errors
	ErrTopicNotFound      = errors.New("topic not found")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrNotSubscribed      = errors.New("subscriber is not attached to topic")

	// Lifecycle errors
	ErrTopicExists = errors.New("topic already exists")

	// Input errors
	ErrEmptyTopicName    = errors.New("topic name is required")
	ErrEmptySubscriberID = errors.New("subscriber id is required")
	ErrNilPayload        = errors.New("payload is required")
)
