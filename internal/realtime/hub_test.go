package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/pkg/logger"
)

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubReplaysLastAndBroadcasts(t *testing.T) {
	hub := NewHub(logger.Nop())
	hub.Publish("status", "live")
	hub.Publish("status", "connecting")

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Only the latest message per topic is replayed
	msg := readMessage(t, conn)
	assert.Equal(t, "status", msg.Type)
	assert.JSONEq(t, `"connecting"`, string(msg.Data))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("evaluation", map[string]string{"run_id": "r1"})
	msg = readMessage(t, conn)
	assert.Equal(t, "evaluation", msg.Type)
	assert.JSONEq(t, `{"run_id":"r1"}`, string(msg.Data))
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub(logger.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishUnencodablePayload(t *testing.T) {
	hub := NewHub(logger.Nop())
	assert.NotPanics(t, func() { hub.Publish("bad", make(chan int)) })
	assert.Empty(t, hub.last)
}
