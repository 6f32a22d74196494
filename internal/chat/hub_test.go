package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type message struct {
	Content string `json:"content"`
}

func TestPublishReachesRoomSubscribersOnly(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe("room-a", 1)
	b := hub.Subscribe("room-b", 1)
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	n, err := hub.Publish("room-a", message{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var got message
	require.NoError(t, json.Unmarshal(<-a.C(), &got))
	assert.Equal(t, "hello", got.Content)

	select {
	case <-b.C():
		t.Fatal("room-b subscriber received a room-a message")
	default:
	}
}

func TestPublishDropsForFullQueue(t *testing.T) {
	hub := NewHub(nil)
	s := hub.Subscribe("r", 1)
	defer hub.Unsubscribe(s)

	n, err := hub.Publish("r", message{Content: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = hub.Publish("r", message{Content: "2"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnsubscribeClosesStream(t *testing.T) {
	hub := NewHub(nil)
	s := hub.Subscribe("r", 0)
	assert.Equal(t, 1, hub.Subscribers("r"))

	hub.Unsubscribe(s)
	hub.Unsubscribe(s)
	assert.Equal(t, 0, hub.Subscribers("r"))
	_, ok := <-s.C()
	assert.False(t, ok)
}

func TestServeDeliversOverWebsocket(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(ctx, conn, hub.Subscribe("room", 0))
		close(served)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("room") == 1 }, time.Second, 5*time.Millisecond)
	_, err = hub.Publish("room", message{Content: "over the wire"})
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got message
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "over the wire", got.Content)

	cancel()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 0, hub.Subscribers("room"))
}
