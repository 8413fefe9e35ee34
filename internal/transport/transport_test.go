// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testFrame struct {
	Seq  uint64 `json:"seq"`
	Beat bool   `json:"beat"`
}

func (f testFrame) Summary() string { return "test" }

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := NewWebSocketTransport("", "/ws")
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()
	defer wst.Close()

	a := dial(t, srv, "/ws")
	defer a.Close()
	b := dial(t, srv, "/ws")
	defer b.Close()
	waitFor(t, "two clients", func() bool { return wst.Clients() == 2 })

	if err := wst.Send(testFrame{Seq: 7, Beat: true}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %s read: %v", name, err)
		}
		if kind != websocket.TextMessage {
			t.Errorf("client %s message type = %d, want text", name, kind)
		}
		var got testFrame
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("client %s: bad JSON %s: %v", name, msg, err)
		}
		if got.Seq != 7 || !got.Beat {
			t.Errorf("client %s received %+v", name, got)
		}
	}
}

func TestWebSocketClientRemoval(t *testing.T) {
	wst := NewWebSocketTransport("", "")
	srv := httptest.NewServer(wst.Handler())
	defer srv.Close()
	defer wst.Close()

	conn := dial(t, srv, "/ws")
	waitFor(t, "client", func() bool { return wst.Clients() == 1 })
	conn.Close()
	waitFor(t, "client removal", func() bool { return wst.Clients() == 0 })
}

func TestWebSocketSendErrors(t *testing.T) {
	wst := NewWebSocketTransport("", "/ws")
	if err := wst.Send(func() {}); err == nil {
		t.Error("Send accepted a value JSON cannot encode")
	}
	if err := wst.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := wst.Send(testFrame{}); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Send after Close = %v, want ErrTransportClosed", err)
	}
}

func TestWebSocketDropsWhenFull(t *testing.T) {
	wst := NewWebSocketTransport("", "/ws")
	// Stop the broadcaster so nothing drains the queue.
	wst.Close()
	wst.closed.Store(false)

	for range cap(wst.broadcast) + 10 {
		if err := wst.Send(testFrame{}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if wst.Dropped() != 10 {
		t.Errorf("Dropped() = %d, want 10", wst.Dropped())
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	for range 3 {
		if err := lt.Send(testFrame{}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if err := lt.Send(42); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if lt.Sent() != 4 {
		t.Errorf("Sent() = %d, want 4", lt.Sent())
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFrameJSON(t *testing.T) {
	f := Frame{
		Seq:       3,
		Timestamp: time.Unix(0, 0).UTC(),
		Volume:    12.5,
		Beat:      true,
		Mode:      "bars",
		Bins:      Levels{0, 7, 255},
		Bands:     []float64{1.5, 0},
	}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"bins":[0,7,255]`, `"beat":true`, `"seq":3`, `"mode":"bars"`, `"bands":[1.5,0]`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("%s missing %s", b, want)
		}
	}

	empty, _ := json.Marshal(Frame{})
	if !strings.Contains(string(empty), `"bins":null`) {
		t.Errorf("nil bins encoded as %s", empty)
	}
	if s := f.Summary(); !strings.Contains(s, "seq=3") || !strings.Contains(s, "bins=3") {
		t.Errorf("Summary() = %q", s)
	}
}
