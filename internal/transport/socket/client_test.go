package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	conns  chan *websocket.Conn
	frames chan frame
	auths  chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		conns:  make(chan *websocket.Conn, 4),
		frames: make(chan frame, 16),
		auths:  make(chan string, 4),
	}

	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.auths <- r.Header.Get("Authorization")
		conn, err := ts.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn

		go func() {
			for {
				var f frame
				if err := conn.ReadJSON(&f); err != nil {
					return
				}
				ts.frames <- f
			}
		}()
	}))
	t.Cleanup(ts.srv.Close)

	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw a connection")
		return nil
	}
}

func (ts *testServer) waitFrame(t *testing.T) frame {
	t.Helper()
	select {
	case f := <-ts.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a frame")
		return frame{}
	}
}

func TestConnectSendsToken(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.wsURL(), testLogger())
	defer c.Disconnect()

	if err := c.Connect(context.Background(), "tok", "cid"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if auth := <-ts.auths; auth != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", auth)
	}
	if !c.IsConnected() {
		t.Error("IsConnected should report true after dial")
	}
}

func TestEmitsAndDispatch(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.wsURL(), testLogger())
	defer c.Disconnect()

	events := make(chan interface{}, 16)
	c.AddEventHandler(func(evt interface{}) { events <- evt })

	if err := c.Connect(context.Background(), "tok", "cid"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	serverConn := ts.waitConn(t)

	// connect dispatches ConnectedEvent
	select {
	case evt := <-events:
		if _, ok := evt.(ConnectedEvent); !ok {
			t.Fatalf("first event = %T, want ConnectedEvent", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no ConnectedEvent dispatched")
	}

	// outbound: every typed emit lands as a named frame
	if err := c.SendChatMessage("alice_bob", "hi", "bob"); err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	f := ts.waitFrame(t)
	if f.Event != "chat message" {
		t.Errorf("frame event = %q, want chat message", f.Event)
	}
	var p chatMessagePayload
	if err := json.Unmarshal(f.Data, &p); err != nil || p.RoomID != "alice_bob" || p.Body != "hi" || p.To != "bob" {
		t.Errorf("payload = %+v (err %v)", p, err)
	}

	if err := c.SendReadSignal("alice_bob", "alice"); err != nil {
		t.Fatalf("SendReadSignal: %v", err)
	}
	if f := ts.waitFrame(t); f.Event != "messages_read" {
		t.Errorf("frame event = %q, want messages_read", f.Event)
	}

	if err := c.JoinRoom("alice_bob"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	f = ts.waitFrame(t)
	var room string
	if err := json.Unmarshal(f.Data, &room); f.Event != "join room" || err != nil || room != "alice_bob" {
		t.Errorf("join frame = %+v (room %q, err %v)", f, room, err)
	}

	// inbound: server frames dispatch as typed events
	raw, _ := json.Marshal(frame{Event: "online users", Data: json.RawMessage(`["bob"]`)})
	if err := serverConn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case evt := <-events:
		users, ok := evt.(OnlineUsersEvent)
		if !ok || len(users.Users) != 1 || users.Users[0] != "bob" {
			t.Errorf("event = %+v (%T)", evt, evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbound frame never dispatched")
	}
}

func TestReconnectTearsDownOldConnection(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.wsURL(), testLogger())
	defer c.Disconnect()

	if err := c.Connect(context.Background(), "tok", "cid"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	first := ts.waitConn(t)

	if err := c.Connect(context.Background(), "tok2", "cid"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	ts.waitConn(t)

	// The first server-side connection observes the teardown.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Error("old connection should be closed on reconnect")
	}

	if !c.IsConnected() {
		t.Error("client should hold the new connection")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	c := NewClient(ts.wsURL(), testLogger())

	if err := c.Connect(context.Background(), "tok", "cid"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	c.Disconnect()
	c.Disconnect()

	if c.IsConnected() {
		t.Error("IsConnected should report false after disconnect")
	}
}
