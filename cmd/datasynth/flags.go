package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	Preset          string
	NATSURL         string
	Seed            int64
	Customers       int
	EventsPerTopic  int
	Workers         int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	DryRun          bool
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("DATASYNTH_CONFIG", ""),
		"Path to configuration file, empty uses the preset (env: DATASYNTH_CONFIG)")

	flag.StringVar(&cfg.Preset, "preset",
		getEnv("DATASYNTH_PRESET", "reliable"),
		"Configuration preset: reliable, streaming, bulk, best_effort (env: DATASYNTH_PRESET)")

	flag.StringVar(&cfg.NATSURL, "nats-url",
		getEnv("DATASYNTH_NATS_URL", ""),
		"NATS server URL, overrides config (env: DATASYNTH_NATS_URL)")

	flag.Int64Var(&cfg.Seed, "seed",
		getEnvInt64("DATASYNTH_SEED", 0),
		"Generation seed, 0 keeps the config value (env: DATASYNTH_SEED)")

	flag.IntVar(&cfg.Customers, "customers",
		getEnvInt("DATASYNTH_CUSTOMERS", 0),
		"Number of customers, 0 keeps the config value (env: DATASYNTH_CUSTOMERS)")

	flag.IntVar(&cfg.EventsPerTopic, "events",
		getEnvInt("DATASYNTH_EVENTS", 0),
		"Events per topic, 0 keeps the config value (env: DATASYNTH_EVENTS)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("DATASYNTH_WORKERS", 0),
		"Event generation workers, 0 keeps the config value (env: DATASYNTH_WORKERS)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("DATASYNTH_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: DATASYNTH_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("DATASYNTH_LOG_FORMAT", "json"),
		"Log format: json, text (env: DATASYNTH_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("DATASYNTH_SHUTDOWN_TIMEOUT", 5*time.Minute),
		"Graceful shutdown timeout (env: DATASYNTH_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.DryRun, "dry-run",
		getEnvBool("DATASYNTH_DRY_RUN", false),
		"Generate without a broker, using the in-memory transport (env: DATASYNTH_DRY_RUN)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printDetailedHelp

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Seed < 0 {
		return fmt.Errorf("invalid seed: %d", cfg.Seed)
	}
	if cfg.Customers < 0 || cfg.EventsPerTopic < 0 || cfg.Workers < 0 {
		return fmt.Errorf("volume flags cannot be negative")
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Synthetic Financial Data Streaming
Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run the reliable preset against a local broker
  %s --nats-url=nats://localhost:4222

  # Bulk backfill with a fixed seed
  %s --preset=bulk --seed=42 --events=500000

  # Generate without a broker
  %s --dry-run --log-format=text

  # Validate a configuration file only
  %s --config=/etc/datasynth/config.json --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
