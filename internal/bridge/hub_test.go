package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestBroadcastPick(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	waitClients(t, hub, 2)

	if err := hub.PartInfoRequested(1); err != nil {
		t.Fatalf("PartInfoRequested() error = %v", err)
	}
	if err := hub.PartMediaRequested("편두통+후두하근", 1); err != nil {
		t.Fatalf("PartMediaRequested() error = %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		info := readMessage(t, conn)
		if info.Type != TypePartInfo || info.PartID != 1 {
			t.Errorf("info message = %+v", info)
		}
		media := readMessage(t, conn)
		if media.Type != TypePartMedia || media.PartID != 1 || media.Query != "편두통+후두하근" {
			t.Errorf("media message = %+v", media)
		}
	}
}

func TestLateClientGetsLastInfo(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	if err := hub.PartInfoRequested(7); err != nil {
		t.Fatalf("PartInfoRequested() with no clients error = %v", err)
	}

	conn := dial(t, srv)
	msg := readMessage(t, conn)
	if msg.Type != TypePartInfo || msg.PartID != 7 {
		t.Errorf("replayed message = %+v", msg)
	}
}

func TestLabelFromClient(t *testing.T) {
	hub := NewHub()
	labels := make(chan [2]string, 1)
	hub.OnLabel(func(title, focus string) { labels <- [2]string{title, focus} })

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	// Truncated frame: decodes to an unexpected EOF, not a syntax error.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewer.label","title":"x`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewer.label","partId":"one"}`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Message{Type: TypeLabel, Title: "김환자", Focus: "Lower back"}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-labels:
		if got != [2]string{"김환자", "Lower back"} {
			t.Errorf("label = %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("label callback not called")
	}
}

func TestMalformedMessagesKeepClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)
	waitClients(t, hub, 1)

	for _, raw := range []string{"", "{", `{"type":"viewer.label"`, "[1,2"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
	}
	if err := hub.PartInfoRequested(3); err != nil {
		t.Fatalf("PartInfoRequested() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.PartID != 3 {
		t.Errorf("message = %+v", msg)
	}
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, malformed input should not drop the client", hub.Clients())
	}
}

// stalledClient registers a connection whose writer never runs, so its
// queue fills like a dashboard that stopped reading.
func stalledClient(t *testing.T, hub *Hub) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)
	dial(t, srv)

	c := newClient(<-conns)
	t.Cleanup(func() { c.conn.Close() })
	hub.mu.Lock()
	hub.clients[c] = struct{}{}
	hub.mu.Unlock()
}

func TestBroadcastDoesNotWaitForSlowClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	healthy := dial(t, srv)
	waitClients(t, hub, 1)
	stalledClient(t, hub)

	start := time.Now()
	for i := 0; i < sendQueue; i++ {
		if err := hub.PartMediaRequested("목", i); err != nil {
			t.Fatalf("message %d: error = %v", i, err)
		}
		if msg := readMessage(t, healthy); msg.PartID != i {
			t.Fatalf("healthy client got %+v, want partId %d", msg, i)
		}
	}
	err := hub.PartInfoRequested(99)
	if !errors.Is(err, ErrBacklog) {
		t.Errorf("error = %v, want ErrBacklog for the stalled client", err)
	}
	if msg := readMessage(t, healthy); msg.PartID != 99 {
		t.Errorf("healthy client got %+v after a drop", msg)
	}
	if elapsed := time.Since(start); elapsed > writeWait {
		t.Errorf("broadcasts took %v, should not wait on the stalled client", elapsed)
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	if err := hub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d after Close", hub.Clients())
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client should observe the close")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx, addr) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("bridge never accepted: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
