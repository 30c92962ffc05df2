package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/router"
)

// captureHandler records log entries as flat maps.
type captureHandler struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	entry := map[string]any{"level": r.Level.String(), "msg": r.Message}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) all() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.entries...)
}

func ok(body string) handler.HandlerFunc[*router.Context] {
	return func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			_, err := w.Write([]byte(body))
			return err
		}
	}
}
