// Package main implements ingestd, the composition root for the message
// ingest pipeline: it loads configuration, connects to NATS, registers
// every reference plug-in, and wires the Router and Engine together
// before handing control to signal-driven shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/ingestpipe/component"
	"github.com/c360/ingestpipe/config"
	"github.com/c360/ingestpipe/engine"
	"github.com/c360/ingestpipe/metric"
	"github.com/c360/ingestpipe/natsclient"
	"github.com/c360/ingestpipe/plugins/filewriter"
	"github.com/c360/ingestpipe/plugins/httpwriter"
	"github.com/c360/ingestpipe/plugins/jsonmap"
	natsplugin "github.com/c360/ingestpipe/plugins/nats"
	"github.com/c360/ingestpipe/plugins/udpsource"
	"github.com/c360/ingestpipe/registry/natsregistry"
	"github.com/c360/ingestpipe/router"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ingestd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("ingestd exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid")
		return nil
	}

	ctx := context.Background()
	natsURL := cfg.NATSURL
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	natsClient, err := natsclient.NewClient(natsURL)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	logger.Info("connecting to NATS", "url", natsURL)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = natsClient.WaitForConnection(connCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	defer natsClient.Close(context.Background())

	metricsRegistry := metric.NewMetricsRegistry()
	if cliCfg.HealthPort > 0 {
		srv := metric.NewServer(cliCfg.HealthPort, "/metrics", metricsRegistry)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server exited", "error", err)
			}
		}()
		defer srv.Stop()
	}

	registry := component.NewRegistry()
	if err := registerPlugins(registry); err != nil {
		return fmt.Errorf("register plugins: %w", err)
	}

	deps := component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
	}

	routeRegistry := natsregistry.New(natsClient, cfg.DeployName)
	eng := engine.New(registry, deps, logger)
	rtr := router.New(cfg.TargetThreads, routeRegistry, eng.ResolveRoute, logger, metricsRegistry)
	eng.SetRouter(rtr)

	if !eng.Initialize(cfg) {
		return fmt.Errorf("engine failed to initialize")
	}
	if !eng.Start() {
		return fmt.Errorf("engine failed to start")
	}
	logger.Info("ingestd started", "deploy_name", cfg.DeployName, "sources", len(cfg.Sources), "writers", len(cfg.Writers))

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()
	<-signalCtx.Done()
	logger.Info("received shutdown signal")

	done := make(chan struct{})
	go func() {
		eng.Stop()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("ingestd shutdown complete")
	case <-time.After(cliCfg.ShutdownTimeout):
		logger.Warn("shutdown timed out before all components stopped")
	}

	return nil
}

// registerPlugins wires every reference plug-in's factory into the
// registry under its logical type identifier (spec §6a).
func registerPlugins(registry *component.Registry) error {
	if err := registry.RegisterSource("nats", natsplugin.NewSource); err != nil {
		return err
	}
	if err := registry.RegisterWriter("nats", natsplugin.NewWriter); err != nil {
		return err
	}
	if err := registry.RegisterSource("udp", udpsource.New); err != nil {
		return err
	}
	if err := registry.RegisterWriter("file", filewriter.New); err != nil {
		return err
	}
	if err := registry.RegisterWriter("http", httpwriter.New); err != nil {
		return err
	}
	if err := registry.RegisterTransformer("jsonmap", jsonmap.New); err != nil {
		return err
	}
	return nil
}
