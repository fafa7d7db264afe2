package handlers

import (
	"net/http"

	"github.com/pingboard/pingboard/pkg/api/middleware"
	"github.com/pingboard/pingboard/pkg/api/response"
	"github.com/pingboard/pingboard/pkg/logger"
	"github.com/pingboard/pingboard/pkg/pinger"
)

// SendPingHandler handles the sender UI's "send ping" action by issuing
// one upstream ping.
type SendPingHandler struct {
	pinger *pinger.Pinger
	log    logger.Logger
}

// NewSendPingHandler creates a send-ping handler.
func NewSendPingHandler(p *pinger.Pinger, log logger.Logger) *SendPingHandler {
	return &SendPingHandler{
		pinger: p,
		log:    log,
	}
}

// SendPing handles POST /send-ping.
func (h *SendPingHandler) SendPing(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Send(r.Context()); err != nil {
		h.log.Error("failed to send ping", "error", err,
			"request_id", middleware.GetRequestID(r.Context()))
		response.InternalError(w, middleware.GetRequestID(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
