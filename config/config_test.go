package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range []string{"reliable", "streaming", "bulk", "best_effort"} {
		cfg, ok := Preset(name)
		require.True(t, ok, name)
		assert.NoError(t, cfg.Validate(), name)
	}

	_, ok := Preset("turbo")
	assert.False(t, ok)
}

func TestPresets_AreIndependentValues(t *testing.T) {
	a := Bulk()
	a.Pipeline.MaxPending = 1

	b := Bulk()
	assert.Equal(t, 50000, b.Pipeline.MaxPending)
}

func TestPreset_BestEffortDelivery(t *testing.T) {
	cfg := BestEffort()
	assert.Equal(t, DeliveryBestEffort, cfg.Pipeline.Delivery)
	assert.False(t, cfg.NATS.ProvisionStreams)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.NATS.URL = "" }},
		{"unknown delivery", func(c *Config) { c.Pipeline.Delivery = "telepathy" }},
		{"zero queue capacity", func(c *Config) { c.Pipeline.QueueCapacity = 0 }},
		{"batch exceeds capacity", func(c *Config) { c.Pipeline.TransferBatch = c.Pipeline.QueueCapacity + 1 }},
		{"zero max pending", func(c *Config) { c.Pipeline.MaxPending = 0 }},
		{"zero retry ceiling", func(c *Config) { c.Pipeline.RetryCeiling = 0 }},
		{"zero senders", func(c *Config) { c.Pipeline.Senders = 0 }},
		{"zero flush base", func(c *Config) { c.Pipeline.FlushBase = 0 }},
		{"flush max below base", func(c *Config) { c.Pipeline.FlushMax = c.Pipeline.FlushBase - time.Second }},
		{"zero flush scale", func(c *Config) { c.Pipeline.FlushScale = 0 }},
		{"negative customers", func(c *Config) { c.Generate.Customers = -1 }},
		{"negative rate", func(c *Config) { c.Generate.RatePerSecond = -5 }},
		{"metrics port out of range", func(c *Config) { c.Metrics.Port = 70000 }},
		{"unsafe nats name", func(c *Config) { c.NATS.Name = "bad name!" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultConfig_FlushTuning(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.Pipeline.FlushBase)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.FlushMax)
	assert.Equal(t, 10000, cfg.Pipeline.FlushScale)
	assert.Equal(t, 1, cfg.Pipeline.Senders)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"nats": {"url": "nats://broker:4222"},
		"generate": {"seed": 42, "customers": 50, "events_per_topic": 500, "workers": 2}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, int64(42), cfg.Generate.Seed)
	// Unset fields keep preset defaults
	assert.Equal(t, 8192, cfg.Pipeline.QueueCapacity)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestToJSON(t *testing.T) {
	out, err := DefaultConfig().ToJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"delivery": "jetstream"`)
}
