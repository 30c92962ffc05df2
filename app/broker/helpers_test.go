package broker_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/app/broker"
	"github.com/dmitrymomot/pubsub/core/protocol"
)

const testKey = "test-secret"

func testConfig() broker.Config {
	cfg := broker.DefaultConfig()
	cfg.APIKey = testKey
	cfg.HeartbeatIntervalSec = 0
	cfg.WSWriteTimeout = time.Second
	cfg.WSHandshakeTimeout = time.Second
	cfg.WSReadBuffer = 512
	cfg.WSWriteBuffer = 512
	return cfg
}

func newTestApp(t *testing.T, mutate ...func(*broker.Config)) (*broker.App, *httptest.Server) {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	app, err := broker.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return app, srv
}

// call sends a JSON request and decodes the JSON response into a map.
// A nil body sends no payload; a string body is sent verbatim.
func call(t *testing.T, srv *httptest.Server, method, path string, body any, key string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func dial(t *testing.T, srv *httptest.Server, key string) *websocket.Conn {
	t.Helper()
	return dialAddr(t, strings.TrimPrefix(srv.URL, "http://"), key)
}

func dialAddr(t *testing.T, addr, key string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if key != "" {
		header.Set("X-API-Key", key)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+broker.APIPrefix+"/ws", header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func read(t *testing.T, conn *websocket.Conn) protocol.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame protocol.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) protocol.Frame {
	t.Helper()
	for range 100 {
		if frame := read(t, conn); frame.Type == typ {
			return frame
		}
	}
	t.Fatalf("no %s frame received", typ)
	return protocol.Frame{}
}
