package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pingboard/pingboard/pkg/counter"
	"github.com/pingboard/pingboard/pkg/logger"
)

const (
	defaultStreamWriteTimeout = 10 * time.Second
	streamReadLimit           = 512
)

// StreamRecorder receives stream observations.
type StreamRecorder interface {
	StreamClientConnected()
	StreamClientDisconnected()
	RecordStreamMessage()
}

// EventsConfig configures the events handler.
type EventsConfig struct {
	AllowedOrigins []string
	MaxClients     int
	WriteTimeout   time.Duration
}

// EventsHandler handles GET /events: it upgrades the connection to a
// websocket and streams the counter's value as text, first the value at
// connection time and then every newer value. Intermediate values may be
// coalesced; the latest is always delivered.
type EventsHandler struct {
	counter      *counter.Counter
	log          logger.Logger
	metrics      StreamRecorder
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	maxClients   int

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	wg      sync.WaitGroup
}

// NewEventsHandler creates an events handler. metrics may be nil.
func NewEventsHandler(c *counter.Counter, log logger.Logger, metrics StreamRecorder, cfg EventsConfig) *EventsHandler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultStreamWriteTimeout
	}

	h := &EventsHandler{
		counter:      c,
		log:          log,
		metrics:      metrics,
		writeTimeout: cfg.WriteTimeout,
		maxClients:   cfg.MaxClients,
		clients:      make(map[*websocket.Conn]struct{}),
	}

	allowedOrigins := append([]string(nil), cfg.AllowedOrigins...)
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, allowedOrigins)
		},
	}

	return h
}

// ServeHTTP upgrades the request and runs the per-connection stream loop.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	if !h.register(conn) {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many subscribers"),
			time.Now().Add(h.writeTimeout),
		)
		_ = conn.Close()
		return
	}
	defer h.unregister(conn)

	if h.metrics != nil {
		h.metrics.StreamClientConnected()
		defer h.metrics.StreamClientDisconnected()
	}

	h.stream(r.Context(), conn)
}

// stream sends the current value, then every change, until the client
// disconnects or ctx is cancelled.
func (h *EventsHandler) stream(ctx context.Context, conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client never sends application data, but the connection must
	// still be read to observe close frames.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(streamReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		select {
		case <-readerDone:
			cancel()
		case <-connCtx.Done():
		}
	}()

	value, version := h.counter.Snapshot()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(strconv.FormatUint(value, 10))); err != nil {
			h.log.Debug("stream write failed", "error", err)
			return
		}
		if h.metrics != nil {
			h.metrics.RecordStreamMessage()
		}

		var err error
		value, version, err = h.counter.Wait(connCtx, version)
		if err != nil {
			// Either the process is draining or the client went away.
			// Send a close frame on a best-effort basis.
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.writeTimeout),
			)
			return
		}
	}
}

func (h *EventsHandler) register(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return false
	}
	h.clients[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *EventsHandler) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		h.wg.Done()
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// ClientCount returns the number of connected subscribers.
func (h *EventsHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Drain waits for all stream loops to finish. When ctx expires first the
// remaining connections are closed forcibly and the context error is
// returned.
func (h *EventsHandler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		h.mu.Lock()
		for conn := range h.clients {
			_ = conn.Close()
		}
		h.mu.Unlock()
		return ctx.Err()
	}
}

// isOriginAllowed accepts listed origins, or same-host requests when no
// list is configured.
func isOriginAllowed(r *http.Request, allowedOrigins []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}
