package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pingboard/pingboard/config"
	"github.com/pingboard/pingboard/pkg/api"
	"github.com/pingboard/pingboard/pkg/api/handlers"
	"github.com/pingboard/pingboard/pkg/logger"
	"github.com/pingboard/pingboard/pkg/metrics"
	"github.com/pingboard/pingboard/pkg/pinger"
	"github.com/pingboard/pingboard/pkg/shutdown"
	"github.com/pingboard/pingboard/pkg/supervisor"
	"github.com/pingboard/pingboard/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	address     = flag.String("address", "", "Override bind address")
	port        = flag.Int("port", 0, "Override listener port")
	receiverURL = flag.String("receiver", "", "Override receiver URL")
	interval    = flag.Duration("interval", 0, "Send a ping automatically at this interval")
	logLevel    = flag.String("log-level", "", "Override log level")
	debugMode   = flag.Bool("debug", false, "Enable debug mode")
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

	log.Info("Starting Pingboard sender",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"receiver", cfg.Sender.ReceiverURL,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	if err := run(cfg, log); err != nil {
		log.Error("Sender terminated", "error", err)
		os.Exit(1)
	}
	log.Info("Sender stopped gracefully")
}

func run(cfg *config.Config, log logger.Logger) error {
	group := supervisor.New(context.Background())
	defer group.Cancel()

	p, err := pinger.New(cfg.Sender.ReceiverURL, cfg.Sender.RequestTimeout, log)
	if err != nil {
		return err
	}

	metricsManager := metrics.NewManager(metrics.Config{
		Enabled:             cfg.Metrics.Enabled,
		Port:                cfg.Metrics.Port,
		Path:                cfg.Metrics.Path,
		HTTPDurationBuckets: metrics.DefaultConfig().HTTPDurationBuckets,
	})

	router := api.NewSenderRouter(cfg, log, api.SenderDeps{
		SendPing: handlers.NewSendPingHandler(p, log),
		Metrics:  metricsManager,
	})
	server := api.New(
		"sender",
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		router,
		cfg.Server.HTTP,
		log,
	)

	group.Go("sender-server", server.Run)

	if metricsManager.Enabled() {
		group.Go("metrics-server", func(ctx context.Context) error {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			return metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
		})
	}

	if cfg.Sender.Interval > 0 {
		group.Go("auto-pinger", func(ctx context.Context) error {
			return p.Run(ctx, cfg.Sender.Interval)
		})
	}

	group.Go("signal-watcher", func(ctx context.Context) error {
		shutdown.Wait(ctx, log)
		group.Cancel()
		return nil
	})

	log.Info("Sender is running",
		"port", cfg.Server.Port,
		"receiver", cfg.Sender.ReceiverURL,
		"auto_interval", cfg.Sender.Interval,
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
	if *receiverURL != "" {
		overrides["sender.receiver_url"] = *receiverURL
	}
	if *interval != 0 {
		overrides["sender.interval"] = interval.String()
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
	fmt.Printf("Pingboard sender\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Pingboard sender - serves the ping button and forwards pings to the receiver\n\n")
	fmt.Printf("Usage: sender [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  sender                                    # Run with default config\n")
	fmt.Printf("  sender -receiver http://localhost:9001    # Point at a local receiver\n")
	fmt.Printf("  sender -interval 5s                       # Also ping every 5 seconds\n")
	fmt.Printf("  sender -version                           # Print version info\n")
}
