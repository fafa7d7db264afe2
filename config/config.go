// Package config provides configuration management for Pingboard.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for both Pingboard binaries. The
// receiver reads App/Server/Log/Metrics/Stream; the sender additionally
// reads Sender.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the listener configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Stream is the websocket stream configuration.
	Stream StreamConfig `mapstructure:"stream"`

	// Sender is the ping sender configuration.
	Sender SenderConfig `mapstructure:"sender"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the listener configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the stream (UI + websocket) listener port. For the sender
	// binary this is the port of its own web UI.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// PingPort is the update (ping) listener port.
	PingPort int `mapstructure:"ping_port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// RateLimit is the ping endpoint rate limit configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum idle time for keep-alive connections.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the drain grace period. When it expires,
	// remaining connections are closed forcibly.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `mapstructure:"max_header_bytes" validate:"min=0"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS handling.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins lists allowed origins; "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods lists allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `mapstructure:"max_age" validate:"min=0"`
}

// RateLimitConfig holds the ping endpoint rate limit settings.
type RateLimitConfig struct {
	// Enabled enables per-client rate limiting on the ping endpoint.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained per-client rate.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Burst is the per-client burst size.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`

	// Format is the log format (json or text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the log destination (stdout, stderr, or a file path).
	Output string `mapstructure:"output"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Enabled enables the Prometheus metrics listener.
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics listener port.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`
}

// StreamConfig holds websocket stream settings.
type StreamConfig struct {
	// AllowedOrigins lists origins allowed to open the stream; empty
	// allows same-host only.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// MaxClients caps concurrent stream subscribers. Zero means no cap.
	MaxClients int `mapstructure:"max_clients" validate:"min=0"`

	// WriteTimeout bounds a single value write to a subscriber.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SenderConfig holds the ping sender settings.
type SenderConfig struct {
	// ReceiverURL is the target for ping POSTs.
	ReceiverURL string `mapstructure:"receiver_url" validate:"required,url"`

	// Interval, when positive, makes the sender issue pings periodically
	// in addition to the manual UI action.
	Interval time.Duration `mapstructure:"interval"`

	// RequestTimeout bounds a single upstream ping request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// String returns a short human-readable summary for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"app=%s env=%s host=%s port=%d ping_port=%d log=%s/%s metrics=%v",
		c.App.Name, c.App.Environment,
		c.Server.Host, c.Server.Port, c.Server.PingPort,
		c.Log.Level, c.Log.Format,
		c.Metrics.Enabled,
	)
}
