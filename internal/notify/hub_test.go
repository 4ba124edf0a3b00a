package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialClient opens a real websocket pair against the hub, registered under
// the given user id.
func dialClient(t *testing.T, hub *Hub, userID int64) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(payload)
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestSendToUser(t *testing.T) {
	hub := NewHub()
	alice := dialClient(t, hub, 1)
	bob := dialClient(t, hub, 2)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.SendToUser(1, []byte("for alice"))

	assert.Equal(t, "for alice", readMessage(t, alice))
	assertNoMessage(t, bob)
}

func TestSendToUserMultipleConnections(t *testing.T) {
	hub := NewHub()
	first := dialClient(t, hub, 1)
	second := dialClient(t, hub, 1)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.SendToUser(1, []byte("hello"))

	assert.Equal(t, "hello", readMessage(t, first))
	assert.Equal(t, "hello", readMessage(t, second))
}

func TestBroadcast(t *testing.T) {
	hub := NewHub()
	clients := make([]*websocket.Conn, 0, 3)
	for id := int64(1); id <= 3; id++ {
		clients = append(clients, dialClient(t, hub, id))
	}
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 3 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte("everyone"))

	for i, client := range clients {
		assert.Equal(t, "everyone", readMessage(t, client), "client %d", i)
	}
}

func TestUnregister(t *testing.T) {
	hub := NewHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(1, conn)
		hub.Unregister(1, conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Sending to the now-empty group is a no-op.
	hub.SendToUser(1, []byte("nobody home"))
	assertNoMessage(t, client)
}

func TestConnectionCount(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.ConnectionCount())

	for i := 0; i < 4; i++ {
		dialClient(t, hub, int64(i%2))
	}
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 4 },
		time.Second, 10*time.Millisecond)
}
