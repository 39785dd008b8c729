package config

import "time"

// DefaultConfig returns the Reliable preset; it is the baseline every other
// preset derives from.
func DefaultConfig() *Config {
	return Reliable()
}

// Reliable favors durability: JetStream delivery, moderate windows, stream
// provisioning at startup.
func Reliable() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:              "nats://localhost:4222",
			Name:             "datasynth",
			ConnectTimeout:   5 * time.Second,
			DrainTimeout:     30 * time.Second,
			ProvisionStreams: true,
		},
		Pipeline: PipelineConfig{
			Delivery:      DeliveryJetStream,
			QueueCapacity: 8192,
			TransferBatch: 1024,
			MaxPending:    10000,
			PollInterval:  10000,
			RetryCeiling:  5,
			Senders:       1,
			FlushBase:     30 * time.Second,
			FlushMax:      5 * time.Minute,
			FlushScale:    10000,
			CloudEvents:   true,
		},
		Generate: GenerateConfig{
			Seed:           1,
			Customers:      1000,
			EventsPerTopic: 10000,
			Workers:        4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Streaming paces event emission for continuous feeds: rate limiting on,
// smaller batches for lower latency.
func Streaming() *Config {
	cfg := Reliable()
	cfg.Pipeline.TransferBatch = 128
	cfg.Pipeline.PollInterval = 1000
	cfg.Generate.RatePerSecond = 1000
	cfg.Generate.RateBurst = 2000
	return cfg
}

// Bulk favors throughput for large backfills: wide windows, big batches,
// infrequent polling.
func Bulk() *Config {
	cfg := Reliable()
	cfg.Pipeline.QueueCapacity = 32768
	cfg.Pipeline.TransferBatch = 4096
	cfg.Pipeline.MaxPending = 50000
	cfg.Pipeline.PollInterval = 50000
	cfg.Generate.EventsPerTopic = 100000
	cfg.Generate.Workers = 8
	return cfg
}

// BestEffort trades broker acknowledgement for raw speed: core NATS
// publishes, no stream provisioning, sends count as acked on write.
func BestEffort() *Config {
	cfg := Bulk()
	cfg.Pipeline.Delivery = DeliveryBestEffort
	cfg.NATS.ProvisionStreams = false
	return cfg
}

// Preset returns the named preset, or false for unknown names.
func Preset(name string) (*Config, bool) {
	switch name {
	case "reliable", "":
		return Reliable(), true
	case "streaming":
		return Streaming(), true
	case "bulk":
		return Bulk(), true
	case "best_effort", "best-effort":
		return BestEffort(), true
	default:
		return nil, false
	}
}
