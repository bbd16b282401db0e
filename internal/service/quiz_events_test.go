package service

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

func readEvent(t *testing.T, conn *websocket.Conn) QuizEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev QuizEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestQuizEventHub_PublishToSubscribers(t *testing.T) {
	hub := NewQuizEventHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, r.URL.Query().Get("session"), &QuizEvent{Type: EventState, Data: "hello"})
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?session=a", nil)
	require.NoError(t, err)
	defer conn.Close()
	other, _, err := websocket.DefaultDialer.Dial(wsURL+"?session=b", nil)
	require.NoError(t, err)
	defer other.Close()

	first := readEvent(t, conn)
	assert.Equal(t, EventState, first.Type)
	assert.Equal(t, "hello", first.Data)
	readEvent(t, other)

	assert.Equal(t, 1, hub.Subscribers("a"))
	hub.Publish("a", QuizEvent{Type: EventTick, Data: TickData{State: QuizInProgress, RemainingSeconds: 42}})

	tick := readEvent(t, conn)
	assert.Equal(t, EventTick, tick.Type)
	data, ok := tick.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["remaining_seconds"])

	// b 没有订阅 a，读取应超时
	require.NoError(t, other.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestQuizEventHub_RemoveOnClose(t *testing.T) {
	hub := NewQuizEventHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, "k", &QuizEvent{Type: EventState})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	readEvent(t, conn)
	require.Equal(t, 1, hub.Subscribers("k"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("k") == 0 }, 2*time.Second, 10*time.Millisecond)
}
