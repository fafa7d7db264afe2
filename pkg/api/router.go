package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/pingboard/pingboard/config"
	"github.com/pingboard/pingboard/pkg/api/handlers"
	"github.com/pingboard/pingboard/pkg/api/middleware"
	"github.com/pingboard/pingboard/pkg/logger"
)

// StreamDeps holds the handlers served by the stream listener.
type StreamDeps struct {
	Events  *handlers.EventsHandler
	Health  *handlers.HealthHandler
	Metrics middleware.MetricsRecorder
}

// NewStreamRouter builds the receiver's stream listener routes: the
// counter page, the websocket stream, and health.
func NewStreamRouter(cfg *config.Config, log logger.Logger, deps StreamDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.CORS(corsConfig(cfg.Server.CORS)))

	r.Get("/", handlers.Page("receiver.html"))
	r.Get("/favicon.ico", handlers.Favicon())
	r.Get("/events", deps.Events.ServeHTTP)
	r.Get("/health", deps.Health.Health)

	return r
}

// PingDeps holds the handlers served by the ping listener.
type PingDeps struct {
	Ping    *handlers.PingHandler
	Metrics middleware.MetricsRecorder
}

// NewPingRouter builds the receiver's ping listener routes. The root
// accepts ping POSTs and nothing else.
func NewPingRouter(cfg *config.Config, log logger.Logger, deps PingDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	if cfg.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerSecond,
			cfg.Server.RateLimit.Burst,
		)
		r.Use(middleware.RateLimit(limiter))
	}

	r.Post("/", deps.Ping.Ping)

	return r
}

// SenderDeps holds the handlers served by the sender listener.
type SenderDeps struct {
	SendPing *handlers.SendPingHandler
	Metrics  middleware.MetricsRecorder
}

// NewSenderRouter builds the sender's routes: the button page and the
// endpoint behind it.
func NewSenderRouter(cfg *config.Config, log logger.Logger, deps SenderDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.CORS(corsConfig(cfg.Server.CORS)))

	r.Get("/", handlers.Page("sender.html"))
	r.Get("/favicon.ico", handlers.Favicon())
	r.Post("/send-ping", deps.SendPing.SendPing)

	return r
}

func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	return middleware.CORSConfig{
		Enabled:        cfg.Enabled,
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: cfg.AllowedHeaders,
		MaxAge:         cfg.MaxAge,
	}
}
