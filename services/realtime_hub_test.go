package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *RealtimeHub, userID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(&WSClient{UserID: userID, Conn: conn})
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRealtimeHubBroadcast(t *testing.T) {
	hub := NewRealtimeHub(NewChangeFeed(), zap.NewNop())
	a1 := dialHub(t, hub, "a")
	a2 := dialHub(t, hub, "a")
	b := dialHub(t, hub, "b")
	require.Eventually(t, func() bool {
		return hub.Connected("a") == 2 && hub.Connected("b") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast("a", ReminderNotice{Kind: "reminder", MealType: "lunch", Title: "Lunch Reminder", Channel: "push"})

	for _, conn := range []*websocket.Conn{a1, a2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]string
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "reminder", msg["kind"])
		assert.Equal(t, "lunch", msg["meal_type"])
		assert.Equal(t, "Lunch Reminder", msg["title"])
	}

	// other users see nothing
	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
}

func TestRealtimeHubBroadcastWithoutSockets(t *testing.T) {
	hub := NewRealtimeHub(NewChangeFeed(), zap.NewNop())
	assert.NotPanics(t, func() { hub.Broadcast("nobody", map[string]string{"kind": "reminder"}) })
	assert.Zero(t, hub.Connected("nobody"))
}
