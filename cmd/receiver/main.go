package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pingboard/pingboard/config"
	"github.com/pingboard/pingboard/pkg/api"
	"github.com/pingboard/pingboard/pkg/api/handlers"
	"github.com/pingboard/pingboard/pkg/counter"
	"github.com/pingboard/pingboard/pkg/logger"
	"github.com/pingboard/pingboard/pkg/metrics"
	"github.com/pingboard/pingboard/pkg/shutdown"
	"github.com/pingboard/pingboard/pkg/supervisor"
	"github.com/pingboard/pingboard/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	address   = flag.String("address", "", "Override bind address")
	port      = flag.Int("port", 0, "Override stream listener port")
	pingPort  = flag.Int("ping-port", 0, "Override ping listener port")
	logLevel  = flag.String("log-level", "", "Override log level")
	debugMode = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)
	defer func() { _ = log.Close() }()

	log.Info("Starting Pingboard receiver",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	if err := run(cfg, log); err != nil {
		log.Error("Receiver terminated", "error", err)
		os.Exit(1)
	}
	log.Info("Receiver stopped gracefully")
}

func run(cfg *config.Config, log logger.Logger) error {
	group := supervisor.New(context.Background())
	defer group.Cancel()

	c := counter.New()

	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:             cfg.Metrics.Enabled,
		Port:                cfg.Metrics.Port,
		Path:                cfg.Metrics.Path,
		HTTPDurationBuckets: metrics.DefaultConfig().HTTPDurationBuckets,
	})

	eventsHandler := handlers.NewEventsHandler(c, log, metricsManager, handlers.EventsConfig{
		AllowedOrigins: cfg.Stream.AllowedOrigins,
		MaxClients:     cfg.Stream.MaxClients,
		WriteTimeout:   cfg.Stream.WriteTimeout,
	})

	streamRouter := api.NewStreamRouter(cfg, log, api.StreamDeps{
		Events:  eventsHandler,
		Health:  handlers.NewHealthHandler(c),
		Metrics: metricsManager,
	})
	pingRouter := api.NewPingRouter(cfg, log, api.PingDeps{
		Ping:    handlers.NewPingHandler(c, log, metricsManager),
		Metrics: metricsManager,
	})

	streamServer := api.New(
		"stream",
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		streamRouter,
		cfg.Server.HTTP,
		log,
		api.WithDrainer(eventsHandler),
	)
	pingServer := api.New(
		"ping",
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.PingPort),
		pingRouter,
		cfg.Server.HTTP,
		log,
	)

	group.Go("stream-server", streamServer.Run)
	group.Go("ping-server", pingServer.Run)

	if metricsManager.Enabled() {
		group.Go("metrics-server", func(ctx context.Context) error {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			return metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
		})
	}

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, log)
		if err != nil {
			log.Warn("Config watcher unavailable", "error", err)
		} else {
			current := config.ExtractHotReloadable(cfg)
			watcher.OnChange(func(updated *config.Config) {
				next := config.ExtractHotReloadable(updated)
				if !current.Changed(next) {
					return
				}
				current = next
				level := logger.ParseLevel(next.LogLevel)
				if next.Debug {
					level = logger.DebugLevel
				}
				log.SetLevel(level)
				log.Info("Applied configuration change", "log_level", next.LogLevel, "debug", next.Debug)
			})
			group.Go("config-watcher", watcher.Watch)
		}
	}

	group.Go("signal-watcher", func(ctx context.Context) error {
		shutdown.Wait(ctx, log)
		group.Cancel()
		return nil
	})

	log.Info("Receiver is running",
		"stream_port", cfg.Server.Port,
		"ping_port", cfg.Server.PingPort,
		"metrics_port", cfg.Metrics.Port,
	)

	return group.Wait()
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *address != "" {
		overrides["server.host"] = *address
	}
	if *port != 0 {
		overrides["server.port"] = *port
	}
	if *pingPort != 0 {
		overrides["server.ping_port"] = *pingPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Pingboard receiver\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Pingboard receiver - counts pings and streams the count over websockets\n\n")
	fmt.Printf("Usage: receiver [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  receiver                                  # Run with default config\n")
	fmt.Printf("  receiver -config config.yaml              # Use specific config file\n")
	fmt.Printf("  receiver -port 9000 -ping-port 9001       # Override listener ports\n")
	fmt.Printf("  receiver -version                         # Print version info\n")
}
