package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWebSocket(hub, w, r, userID, "customer")
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendToConnectedUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	if hub.SendToUser(42, &Message{Type: "booking_updated"}) {
		t.Fatal("delivered to a user with no socket")
	}

	conn := dial(t, hub, 42)
	waitFor(t, func() bool { return hub.IsUserConnected(42) })

	if !hub.SendToUser(42, &Message{Type: "booking_updated", Title: "Booking REP001"}) {
		t.Fatal("message not handed to the socket")
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "booking_updated" || got.Title != "Booking REP001" || got.Timestamp.IsZero() {
		t.Fatalf("got %+v", got)
	}
}

func TestPingAndHeartbeat(t *testing.T) {
	hub := NewHub()
	beats := make(chan uint, 1)
	hub.OnHeartbeat = func(userID uint) { beats <- userID }
	go hub.Run()
	defer hub.Stop()

	conn := dial(t, hub, 7)
	waitFor(t, func() bool { return hub.IsUserConnected(7) })

	if err := conn.WriteJSON(Message{Type: "heartbeat"}); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-beats:
		if id != 7 {
			t.Fatalf("heartbeat for user %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat not delivered")
	}

	if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != "pong" {
		t.Fatalf("got %+v", pong)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	conn := dial(t, hub, 9)
	waitFor(t, func() bool { return hub.IsUserConnected(9) })
	conn.Close()
	waitFor(t, func() bool { return !hub.IsUserConnected(9) })
}

func TestStopTwice(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	hub.Stop()
	hub.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
