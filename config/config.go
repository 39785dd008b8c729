// Package config defines the run configuration for datasynth: NATS
// connectivity, pipeline sizing, delivery guarantees and generation volume.
// Presets are plain constructor functions returning values; callers tweak the
// returned struct rather than mutating shared state.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode"
)

// Delivery modes.
const (
	DeliveryJetStream  = "jetstream"   // durable publishes, broker acks
	DeliveryBestEffort = "best_effort" // core NATS, acked on write
)

// NATSConfig holds broker connection settings.
type NATSConfig struct {
	URL              string        `json:"url"`
	Name             string        `json:"name,omitempty"`
	Username         string        `json:"username,omitempty"`
	Password         string        `json:"password,omitempty"`
	Token            string        `json:"token,omitempty"`
	ConnectTimeout   time.Duration `json:"connect_timeout,omitempty"`
	DrainTimeout     time.Duration `json:"drain_timeout,omitempty"`
	ProvisionStreams bool          `json:"provision_streams"`
}

// PipelineConfig sizes the delivery path. Senders above one trade per-key
// ordering for throughput.
type PipelineConfig struct {
	Delivery      string        `json:"delivery"`
	QueueCapacity int           `json:"queue_capacity"`
	TransferBatch int           `json:"transfer_batch"`
	MaxPending    int           `json:"max_pending"`
	PollInterval  int           `json:"poll_interval"`
	RetryCeiling  int           `json:"retry_ceiling"`
	Senders       int           `json:"senders"`
	FlushBase     time.Duration `json:"flush_base"`
	FlushMax      time.Duration `json:"flush_max"`
	FlushScale    int           `json:"flush_scale"`
	CloudEvents   bool          `json:"cloudevents"`
}

// GenerateConfig controls synthetic data volume and pacing.
type GenerateConfig struct {
	Seed           int64   `json:"seed"`
	Customers      int     `json:"customers"`
	EventsPerTopic int     `json:"events_per_topic"`
	Workers        int     `json:"workers"`
	RatePerSecond  float64 `json:"rate_per_second,omitempty"` // 0 disables pacing
	RateBurst      int     `json:"rate_burst,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port,omitempty"`
}

// Config is the complete run configuration.
type Config struct {
	NATS     NATSConfig     `json:"nats"`
	Pipeline PipelineConfig `json:"pipeline"`
	Generate GenerateConfig `json:"generate"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return errors.New("nats.url is required")
	}

	switch c.Pipeline.Delivery {
	case DeliveryJetStream, DeliveryBestEffort:
	default:
		return fmt.Errorf("pipeline.delivery %q is not a known mode", c.Pipeline.Delivery)
	}

	if c.Pipeline.QueueCapacity <= 0 {
		return errors.New("pipeline.queue_capacity must be positive")
	}
	if c.Pipeline.TransferBatch <= 0 {
		return errors.New("pipeline.transfer_batch must be positive")
	}
	if c.Pipeline.TransferBatch > c.Pipeline.QueueCapacity {
		return fmt.Errorf("pipeline.transfer_batch %d exceeds queue_capacity %d",
			c.Pipeline.TransferBatch, c.Pipeline.QueueCapacity)
	}
	if c.Pipeline.MaxPending <= 0 {
		return errors.New("pipeline.max_pending must be positive")
	}
	if c.Pipeline.RetryCeiling <= 0 {
		return errors.New("pipeline.retry_ceiling must be positive")
	}
	if c.Pipeline.Senders <= 0 {
		return errors.New("pipeline.senders must be positive")
	}
	if c.Pipeline.FlushBase <= 0 {
		return errors.New("pipeline.flush_base must be positive")
	}
	if c.Pipeline.FlushMax < c.Pipeline.FlushBase {
		return fmt.Errorf("pipeline.flush_max %s is below flush_base %s",
			c.Pipeline.FlushMax, c.Pipeline.FlushBase)
	}
	if c.Pipeline.FlushScale <= 0 {
		return errors.New("pipeline.flush_scale must be positive")
	}

	if c.Generate.Customers < 0 {
		return errors.New("generate.customers cannot be negative")
	}
	if c.Generate.EventsPerTopic < 0 {
		return errors.New("generate.events_per_topic cannot be negative")
	}
	if c.Generate.Workers < 0 {
		return errors.New("generate.workers cannot be negative")
	}
	if c.Generate.RatePerSecond < 0 {
		return errors.New("generate.rate_per_second cannot be negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	}

	if c.NATS.Name != "" && !isValidNATSName(c.NATS.Name) {
		return fmt.Errorf("nats.name %q is not NATS-subject safe", c.NATS.Name)
	}

	return nil
}

// isValidNATSName checks a string for NATS-safe characters.
func isValidNATSName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return len(s) > 0
}

// Load reads and validates a JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ToJSON renders the config for debugging.
func (c *Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
