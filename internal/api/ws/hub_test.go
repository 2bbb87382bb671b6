package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tcmreview/internal/api/ws"
	"github.com/your-org/tcmreview/internal/events"
)

func startHub(t *testing.T) (*ws.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var e events.Event
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestHub_BroadcastsToClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), events.New(events.ReviewSubmitted, "cat_0001.jpg"))

	e := readEvent(t, conn)
	assert.Equal(t, events.ReviewSubmitted, e.Type)
	assert.Equal(t, "review", e.Kind)
	assert.Equal(t, "cat_0001.jpg", e.Filename)
}

func TestHub_KindFilter(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?kind=feedback")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), events.New(events.ReviewDecided, "skip.jpg"))
	hub.Notify(context.Background(), events.New(events.FeedbackPredicted, "keep.jpg"))

	e := readEvent(t, conn)
	assert.Equal(t, "keep.jpg", e.Filename)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifyWithoutRunDoesNotBlock(t *testing.T) {
	hub := ws.NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Notify(context.Background(), events.New(events.ReviewSubmitted, "x.jpg"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked")
	}
}
