package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newConn(h *Hub, clientID string, buffer int) *Connection {
	return &Connection{ClientID: clientID, Send: make(chan []byte, buffer), Hub: h}
}

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubDeliversToEveryConnectionOfAClient(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	a := newConn(h, "c1", 4)
	b := newConn(h, "c1", 4)
	other := newConn(h, "c2", 4)
	h.Register(a)
	h.Register(b)
	h.Register(other)
	require.Eventually(t, func() bool { return h.Connections("c1") == 2 }, time.Second, 5*time.Millisecond)

	h.SendToClient("c1", "diagnosis_started", map[string]string{"request_id": "r1"})

	for _, conn := range []*Connection{a, b} {
		msg := receive(t, conn)
		assert.Equal(t, MessageType("diagnosis_started"), msg.Type)
		assert.JSONEq(t, `{"request_id":"r1"}`, string(msg.Payload))
	}
	assert.Never(t, func() bool { return len(other.Send) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestHubUnregister(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	conn := newConn(h, "c1", 1)
	h.Register(conn)
	h.Unregister(conn)

	_, ok := <-conn.Send
	assert.False(t, ok)
	assert.Zero(t, h.Connections("c1"))

	// second unregister is a no-op
	h.Unregister(conn)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	conn := newConn(h, "c1", 1)
	h.Register(conn)

	for i := 0; i < 5; i++ {
		h.SendToClient("c1", "diagnosis_started", i)
	}
	msg := receive(t, conn)
	assert.Equal(t, MessageType("diagnosis_started"), msg.Type)
}

func TestHubUnknownClientIsIgnored(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	assert.NotPanics(t, func() {
		h.SendToClient("nobody", "diagnosis_completed", nil)
	})
}

func TestHubUnencodablePayload(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	conn := newConn(h, "c1", 2)
	h.Register(conn)
	h.SendToClient("c1", "diagnosis_completed", func() {})

	msg := receive(t, conn)
	assert.Equal(t, MsgError, msg.Type)
}

func TestHubClose(t *testing.T) {
	h := NewHub(quietLogger())
	conn := newConn(h, "c1", 1)
	h.Register(conn)

	h.Close()
	h.Close()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-conn.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	late := newConn(h, "c2", 1)
	h.Register(late)
	_, ok := <-late.Send
	assert.False(t, ok)
	assert.NotPanics(t, func() { h.SendToClient("c1", "diagnosis_started", nil) })
}

func TestClientWSStreamsEvents(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	router := mux.NewRouter()
	router.HandleFunc("/ws/clients/{clientId}", NewHandler(h, nil, quietLogger()).ClientWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/clients/phone-1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return h.Connections("phone-1") == 1 }, time.Second, 5*time.Millisecond)

	h.SendToClient("phone-1", "diagnosis_completed", map[string]string{"severity": "green"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageType("diagnosis_completed"), msg.Type)
	assert.JSONEq(t, `{"severity":"green"}`, string(msg.Payload))

	conn.Close()
	require.Eventually(t, func() bool { return h.Connections("phone-1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestClientWSRejectsForeignOrigin(t *testing.T) {
	h := NewHub(quietLogger())
	defer h.Close()

	router := mux.NewRouter()
	router.HandleFunc("/ws/clients/{clientId}", NewHandler(h, []string{"https://grow.example"}, quietLogger()).ClientWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/clients/phone-1"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://grow.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://a.example")

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker([]string{"https://a.example"})(req))
	assert.False(t, originChecker([]string{"https://b.example"})(req))

	req.Header.Del("Origin")
	assert.True(t, originChecker([]string{"https://b.example"})(req))
}
