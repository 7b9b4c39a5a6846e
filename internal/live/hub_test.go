package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimPrefix(r.URL.Path, "/ws/users/")
		hub.ServeWS(userID, w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/users/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "u1")

	// Subscription registration races the dial; give the hub a beat.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["u1"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish("u1", "plant_state", map[string]any{"health": 90})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "plant_state", env.Type)
	assert.Equal(t, float64(90), env.Payload["health"])
}

func TestHub_PublishIsScopedToUser(t *testing.T) {
	hub := NewHub(nil)
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "u2")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["u2"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish("someone-else", "plant_state", map[string]any{"health": 10})
	hub.Publish("u2", "plant_state", map[string]any{"health": 55})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, float64(55), env.Payload["health"], "only the subscriber's own event arrives")
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "u3")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["u3"]) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subs["u3"]) == 0
	}, time.Second, 10*time.Millisecond)

	// Publishing to a gone user is a quiet no-op.
	hub.Publish("u3", "plant_state", map[string]any{"health": 1})
}
