package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pingboard/pingboard/pkg/counter"
	"github.com/pingboard/pingboard/pkg/logger"
)

// maxPingBody bounds how much of a ping request body is read.
const maxPingBody = 4 * 1024

// PingRecorder receives ping observations.
type PingRecorder interface {
	RecordPing(counterValue uint64)
}

// pingBody is the optional JSON body senders attach to a ping.
type pingBody struct {
	ID string `json:"id"`
}

// PingHandler handles the update endpoint: each POST bumps the shared
// counter and acknowledges with an empty 204.
type PingHandler struct {
	counter *counter.Counter
	log     logger.Logger
	metrics PingRecorder
}

// NewPingHandler creates a ping handler. metrics may be nil.
func NewPingHandler(c *counter.Counter, log logger.Logger, metrics PingRecorder) *PingHandler {
	return &PingHandler{
		counter: c,
		log:     log,
		metrics: metrics,
	}
}

// Ping handles POST /.
func (h *PingHandler) Ping(w http.ResponseWriter, r *http.Request) {
	// The sender includes an ID in the body; it's informational only and
	// a missing or malformed body still counts.
	var body pingBody
	if data, err := io.ReadAll(io.LimitReader(r.Body, maxPingBody)); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	value := h.counter.Increment()
	if h.metrics != nil {
		h.metrics.RecordPing(value)
	}

	h.log.Debug("ping received", "count", value, "ping_id", body.ID)

	w.WriteHeader(http.StatusNoContent)
}
