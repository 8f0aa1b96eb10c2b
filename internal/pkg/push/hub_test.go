package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	return hub, server, cancel
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, server, cancel := newTestServer(t)
	defer server.Close()
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/admin-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.Count() == 1 })

	if sent := hub.Broadcast([]byte(`{"type":3}`)); sent != 1 {
		t.Fatalf("expected broadcast to 1 client, got %d", sent)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(msg) != `{"type":3}` {
		t.Errorf("unexpected message %s", msg)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, server, cancel := newTestServer(t)
	defer server.Close()
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/admin-2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHub_RejectsEmptySid(t *testing.T) {
	hub := NewHub()
	rec := httptest.NewRecorder()
	hub.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws/", nil), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
