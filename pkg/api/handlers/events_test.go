package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pingboard/pingboard/pkg/counter"
)

func newTestStream(t *testing.T, c *counter.Counter, cfg EventsConfig) (*EventsHandler, *httptest.Server) {
	t.Helper()
	h := NewEventsHandler(c, testLogger(), nil, cfg)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, srv
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial stream: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readValue(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read stream message: %v", err)
	}
	return string(msg)
}

func TestEvents_SendsCurrentValueOnConnect(t *testing.T) {
	c := counter.New()
	c.Increment()
	c.Increment()
	_, srv := newTestStream(t, c, EventsConfig{})

	conn := dialStream(t, srv)
	if got := readValue(t, conn); got != "2" {
		t.Fatalf("expected initial value 2, got %q", got)
	}
}

func TestEvents_StreamsEveryChange(t *testing.T) {
	c := counter.New()
	_, srv := newTestStream(t, c, EventsConfig{})

	conn := dialStream(t, srv)
	if got := readValue(t, conn); got != "0" {
		t.Fatalf("expected initial value 0, got %q", got)
	}

	// Incrementing only after reading the previous value keeps the
	// stream caught up, so no values coalesce.
	for _, want := range []string{"1", "2", "3"} {
		c.Increment()
		if got := readValue(t, conn); got != want {
			t.Fatalf("expected value %q, got %q", want, got)
		}
	}
}

func TestEvents_MultipleSubscribersSeeSameValue(t *testing.T) {
	c := counter.New()
	h, srv := newTestStream(t, c, EventsConfig{})

	a := dialStream(t, srv)
	b := dialStream(t, srv)
	readValue(t, a)
	readValue(t, b)

	if got := h.ClientCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	c.Increment()
	if got := readValue(t, a); got != "1" {
		t.Fatalf("subscriber a: expected 1, got %q", got)
	}
	if got := readValue(t, b); got != "1" {
		t.Fatalf("subscriber b: expected 1, got %q", got)
	}
}

func TestEvents_RequiresUpgrade(t *testing.T) {
	c := counter.New()
	_, srv := newTestStream(t, c, EventsConfig{})

	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for plain GET, got %d", resp.StatusCode)
	}
}

func TestEvents_RejectsOverCapacity(t *testing.T) {
	c := counter.New()
	_, srv := newTestStream(t, c, EventsConfig{MaxClients: 1})

	first := dialStream(t, srv)
	readValue(t, first)

	second := dialStream(t, srv)
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	if err == nil {
		t.Fatal("expected the over-capacity subscriber to be closed")
	}
	if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Fatalf("expected close code %d, got %v", websocket.CloseTryAgainLater, err)
	}
}

func TestEvents_ClientDisconnectUnregisters(t *testing.T) {
	c := counter.New()
	h, srv := newTestStream(t, c, EventsConfig{})

	conn := dialStream(t, srv)
	readValue(t, conn)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber still registered after disconnect, count=%d", h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvents_DrainClosesRemainingClients(t *testing.T) {
	c := counter.New()
	h, srv := newTestStream(t, c, EventsConfig{})

	conn := dialStream(t, srv)
	readValue(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Drain(ctx); err == nil {
		t.Fatal("expected Drain to report the expired context")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the drained connection to be closed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber still registered after drain, count=%d", h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvents_OriginFiltering(t *testing.T) {
	c := counter.New()
	_, srv := newTestStream(t, c, EventsConfig{AllowedOrigins: []string{"https://ui.example.com"}})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	if conn, _, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		conn.Close()
		t.Fatal("expected dial with foreign origin to be refused")
	}

	header = http.Header{"Origin": []string{"https://ui.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("expected dial with allowed origin to succeed: %v", err)
	}
	conn.Close()
}
