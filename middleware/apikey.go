package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/response"
)

// DefaultAPIKeyHeader is the header carrying the pre-shared key.
const DefaultAPIKeyHeader = "X-API-Key"

var (
	// ErrAPIKeyNotConfigured means the server has no key, so every request is refused.
	ErrAPIKeyNotConfigured = errors.New("X-API-Key required (API_KEY env not set)")
	// ErrInvalidAPIKey means the request key is missing or wrong.
	ErrInvalidAPIKey = errors.New("invalid or missing X-API-Key")
)

// APIKeyError is the JSON body of a rejected request.
type APIKeyError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIKeyConfig configures the API key middleware.
type APIKeyConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Key is the expected key. Blank means not configured.
	Key string
	// HeaderName defaults to X-API-Key.
	HeaderName string
}

// APIKey requires every request to carry key in the X-API-Key header.
// With a blank key every request is refused with 503; a missing or wrong key
// gets 401.
func APIKey[C handler.Context](key string) handler.Middleware[C] {
	return APIKeyWithConfig[C](APIKeyConfig{Key: key})
}

// APIKeyWithConfig creates an API key middleware with custom configuration.
func APIKeyWithConfig[C handler.Context](cfg APIKeyConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultAPIKeyHeader
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			err := CheckAPIKey(cfg.Key, ctx.Request().Header.Get(cfg.HeaderName))
			switch {
			case errors.Is(err, ErrAPIKeyNotConfigured):
				return response.JSONWithStatus(APIKeyError{Error: "UNAUTHORIZED", Message: err.Error()}, http.StatusServiceUnavailable)
			case err != nil:
				return response.JSONWithStatus(APIKeyError{Error: "UNAUTHORIZED", Message: err.Error()}, http.StatusUnauthorized)
			}
			return next(ctx)
		}
	}
}

// CheckAPIKey compares a presented key with the expected one in constant
// time. Both are trimmed first.
func CheckAPIKey(expected, got string) error {
	expected = strings.TrimSpace(expected)
	if expected == "" {
		return ErrAPIKeyNotConfigured
	}
	got = strings.TrimSpace(got)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
