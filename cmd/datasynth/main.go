// Package main implements the entry point for datasynth, a synthetic
// financial data generator that streams CloudEvents-wrapped records for a
// simulated retail bank onto NATS JetStream.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/datasynth/config"
	"github.com/c360/datasynth/generate"
	"github.com/c360/datasynth/metric"
	"github.com/c360/datasynth/natsclient"
	"github.com/c360/datasynth/pipeline"
	"github.com/c360/datasynth/pkg/retry"
	"github.com/c360/datasynth/publish"
	"github.com/c360/datasynth/store"
	"github.com/c360/datasynth/transport"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "datasynth"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := buildConfig(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting datasynth",
		"version", Version,
		"build_time", BuildTime,
		"preset", cliCfg.Preset,
		"delivery", cfg.Pipeline.Delivery,
		"dry_run", cliCfg.DryRun)

	registry := metric.NewMetricsRegistry()
	metrics := registry.CoreMetrics()

	if cfg.Metrics.Enabled {
		metricsServer := metric.NewServer(cfg.Metrics.Port, "/metrics", registry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = metricsServer.Stop() }()
		slog.Info("Metrics server listening", "address", metricsServer.Address())
	}

	ctx := context.Background()

	transports, cleanup, err := setupTransports(ctx, cfg, cliCfg.DryRun, registry, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	channels := make(map[string]*publish.Channel, len(transports))
	for topic, tr := range transports {
		channels[topic] = publish.NewChannel(topic, tr,
			publish.WithPollInterval(cfg.Pipeline.PollInterval),
			publish.WithRetryCeiling(cfg.Pipeline.RetryCeiling),
			publish.WithFlushTimeouts(cfg.Pipeline.FlushBase, cfg.Pipeline.FlushMax),
			publish.WithFlushScale(cfg.Pipeline.FlushScale),
			publish.WithCloudEvents(cfg.Pipeline.CloudEvents),
			publish.WithChannelMetrics(metrics),
			publish.WithChannelLogger(logger),
		)
	}

	coordinator, err := pipeline.NewCoordinator(channels,
		pipeline.WithQueueCapacity(cfg.Pipeline.QueueCapacity),
		pipeline.WithTransferBatch(cfg.Pipeline.TransferBatch),
		pipeline.WithSenders(cfg.Pipeline.Senders),
		pipeline.WithMetrics(metrics),
		pipeline.WithRegistry(registry),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	entityStore := store.New(store.WithMetrics(metrics))
	scenario, err := generate.NewScenario(cfg.Generate, entityStore, coordinator,
		generate.WithScenarioLogger(logger))
	if err != nil {
		return fmt.Errorf("create scenario: %w", err)
	}

	return runWithSignalHandling(ctx, cfg, coordinator, scenario, metrics, cliCfg.ShutdownTimeout)
}

// buildConfig layers preset, optional config file and flag overrides.
func buildConfig(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, ok := config.Preset(cliCfg.Preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", cliCfg.Preset)
	}

	if cliCfg.ConfigPath != "" {
		loaded, err := config.Load(cliCfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cliCfg.NATSURL != "" {
		cfg.NATS.URL = cliCfg.NATSURL
	}
	if cliCfg.Seed != 0 {
		cfg.Generate.Seed = cliCfg.Seed
	}
	if cliCfg.Customers != 0 {
		cfg.Generate.Customers = cliCfg.Customers
	}
	if cliCfg.EventsPerTopic != 0 {
		cfg.Generate.EventsPerTopic = cliCfg.EventsPerTopic
	}
	if cliCfg.Workers != 0 {
		cfg.Generate.Workers = cliCfg.Workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupTransports builds one transport per event topic. Dry runs use the
// in-memory transport; otherwise a shared NATS connection backs either
// JetStream or core publishes depending on the delivery mode.
func setupTransports(
	ctx context.Context,
	cfg *config.Config,
	dryRun bool,
	registry *metric.MetricsRegistry,
	metrics *metric.Metrics,
) (map[string]transport.Transport, func(), error) {
	transports := make(map[string]transport.Transport, len(pipeline.Topics()))

	if dryRun {
		for _, topic := range pipeline.Topics() {
			transports[topic] = transport.NewMemory()
		}
		return transports, func() {}, nil
	}

	client, err := connectNATS(ctx, cfg, registry, metrics)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.NATS.DrainTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			slog.Warn("NATS close", "error", err)
		}
	}

	if cfg.NATS.ProvisionStreams {
		if err := provisionStreams(ctx, client); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	for _, topic := range pipeline.Topics() {
		var tr transport.Transport
		switch cfg.Pipeline.Delivery {
		case config.DeliveryBestEffort:
			tr, err = transport.NewCore(client)
		default:
			tr, err = transport.NewJetStream(client,
				transport.WithMaxPending(cfg.Pipeline.MaxPending))
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("transport for %s: %w", topic, err)
		}
		transports[topic] = tr
	}
	return transports, cleanup, nil
}

// connectNATS establishes the broker connection, retrying transient
// failures with broker backoff.
func connectNATS(
	ctx context.Context,
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	metrics *metric.Metrics,
) (*natsclient.Client, error) {
	options := []natsclient.ClientOption{
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithTimeout(cfg.NATS.ConnectTimeout),
		natsclient.WithDrainTimeout(cfg.NATS.DrainTimeout),
		natsclient.WithMetrics(registry),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			metrics.RecordNATSStatus(healthy)
		}),
		natsclient.WithReconnectCallback(func() {
			metrics.RecordNATSReconnect()
		}),
	}
	if cfg.NATS.Username != "" {
		options = append(options, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		options = append(options, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	err = retry.Do(ctx, retry.Broker(), func() error {
		if err := client.Connect(ctx); err != nil {
			return err
		}
		connCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeout)
		defer cancel()
		return client.WaitForConnection(connCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	metrics.RecordNATSStatus(true)
	return client, nil
}

// provisionStreams creates one stream per event topic.
func provisionStreams(ctx context.Context, client *natsclient.Client) error {
	for _, topic := range pipeline.Topics() {
		name := strings.ReplaceAll(topic, ".", "-")
		_, err := client.CreateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{topic},
			Storage:  jetstream.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("provision stream %s: %w", name, err)
		}
		slog.Info("Stream provisioned", "stream", name, "subject", topic)
	}
	return nil
}

// runWithSignalHandling starts the pipeline, runs the scenario, and routes
// both completion and shutdown signals into the same drain path.
func runWithSignalHandling(
	ctx context.Context,
	cfg *config.Config,
	coordinator *pipeline.Coordinator,
	scenario *generate.Scenario,
	metrics *metric.Metrics,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := coordinator.Start(signalCtx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	metrics.RecordPipelineStatus(appName, 1)

	runErr := make(chan error, 1)
	go func() {
		report, err := scenario.Run(signalCtx)
		if err == nil {
			slog.Info("Generation complete",
				"events_submitted", report.EventsSubmitted,
				"master_duration", report.MasterDuration,
				"events_duration", report.EventsDuration)
		}
		runErr <- err
	}()

	var scenarioErr error
	select {
	case scenarioErr = <-runErr:
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal, draining")
		scenarioErr = <-runErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	summary, shutdownErr := coordinator.Shutdown(shutdownCtx)
	metrics.RecordPipelineStatus(appName, 0)
	reportSummary(cfg, summary)

	if scenarioErr != nil && signalCtx.Err() == nil {
		return fmt.Errorf("generation failed: %w", scenarioErr)
	}
	if shutdownErr != nil {
		return fmt.Errorf("pipeline drained incompletely: %w", shutdownErr)
	}

	slog.Info("datasynth shutdown complete")
	return nil
}

// reportSummary logs the final accounting and prints it as JSON for
// scripted callers.
func reportSummary(cfg *config.Config, summary pipeline.Summary) {
	slog.Info("Delivery summary",
		"delivery", cfg.Pipeline.Delivery,
		"submitted", summary.Submitted,
		"sent", summary.Sent,
		"acked", summary.Acked,
		"failed", summary.Failed)

	out := struct {
		Delivery string `json:"delivery"`
		pipeline.Summary
	}{Delivery: cfg.Pipeline.Delivery, Summary: summary}

	if data, err := json.MarshalIndent(out, "", "  "); err == nil {
		fmt.Println(string(data))
	}
}
