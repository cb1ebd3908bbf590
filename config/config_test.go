package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	capacity, err := cfg.CapacityBytes()
	assert.NoError(t, err)
	assert.Equal(t, uint64(20<<20), capacity)

	minAlloc, err := cfg.MinAllocBytes()
	assert.NoError(t, err)
	assert.Equal(t, uint64(512), minAlloc)

	jitter, err := cfg.JitterBytes()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1024), jitter)
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	yaml := `
simulation:
  steps: 50
  seed: 1234
heap:
  capacity: 4MB
  mode: pooled
inspector:
  strategy: walk
`
	assert.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 50, cfg.Simulation.Steps)
	assert.Equal(t, int64(1234), cfg.Simulation.Seed)
	assert.Equal(t, "pooled", cfg.Heap.Mode)
	assert.Equal(t, "walk", cfg.Inspector.Strategy)

	// Sections absent from the file keep their defaults.
	assert.Equal(t, 10, cfg.Workload.AllocsPerStep)
	assert.Equal(t, "heap_fragmentation_stats.csv", cfg.Output.Path)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("simulation: ["), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero steps", func(c *Config) { c.Simulation.Steps = 0 }},
		{"zero allocs per step", func(c *Config) { c.Workload.AllocsPerStep = 0 }},
		{"negative free threshold", func(c *Config) { c.Workload.FreeThreshold = -1 }},
		{"bad capacity", func(c *Config) { c.Heap.Capacity = "lots" }},
		{"zero min alloc", func(c *Config) { c.Workload.MinAllocSize = "" }},
		{"bad jitter", func(c *Config) { c.Workload.AllocJitter = "1XB" }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
