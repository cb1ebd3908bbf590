package config

import (
	"fmt"
	"os"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Heap       HeapConfig       `yaml:"heap"`
	Workload   WorkloadConfig   `yaml:"workload"`
	Inspector  InspectorConfig  `yaml:"inspector"`
	Output     OutputConfig     `yaml:"output"`
}

type SimulationConfig struct {
	Steps int `yaml:"steps"`
	// Seed 0 means seed from the clock; any other value makes the
	// workload reproducible.
	Seed int64 `yaml:"seed"`
}

type HeapConfig struct {
	// Capacity accepts human-readable sizes such as "20MB".
	Capacity string `yaml:"capacity"`
	// Mode is "classic" or "pooled". Classic keeps fragmentation
	// observable; pooled hides it behind size-class recycling.
	Mode string `yaml:"mode"`
}

type WorkloadConfig struct {
	AllocsPerStep int    `yaml:"allocs_per_step"`
	MinAllocSize  string `yaml:"min_alloc_size"`
	AllocJitter   string `yaml:"alloc_jitter"`
	FreeThreshold int    `yaml:"free_threshold"`
}

type InspectorConfig struct {
	// Strategy selects the introspection implementation: walk, xmldump
	// or jsondump.
	Strategy       string `yaml:"strategy"`
	DumpBufferSize string `yaml:"dump_buffer_size"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
	// LockFile guards the CSV with an advisory lock so concurrent
	// analysis jobs do not read a half-written file.
	LockFile bool `yaml:"lock_file"`
}

// Default mirrors the canonical 100-step simulation: 10 allocations of
// 512B-1.5KB per step against a 20MB classic-mode arena.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{Steps: 100},
		Heap:       HeapConfig{Capacity: "20MB", Mode: "classic"},
		Workload: WorkloadConfig{
			AllocsPerStep: 10,
			MinAllocSize:  "512B",
			AllocJitter:   "1KB",
			FreeThreshold: 20,
		},
		Inspector: InspectorConfig{Strategy: "xmldump", DumpBufferSize: "64KB"},
		Output:    OutputConfig{Path: "heap_fragmentation_stats.csv", LockFile: true},
	}
}

// LoadConfig reads a YAML config file; an empty path yields Default.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Simulation.Steps <= 0 {
		return fmt.Errorf("simulation.steps must be positive, got %d", c.Simulation.Steps)
	}
	if c.Workload.AllocsPerStep <= 0 {
		return fmt.Errorf("workload.allocs_per_step must be positive, got %d", c.Workload.AllocsPerStep)
	}
	if c.Workload.FreeThreshold < 0 {
		return fmt.Errorf("workload.free_threshold must not be negative, got %d", c.Workload.FreeThreshold)
	}
	if _, err := c.CapacityBytes(); err != nil {
		return err
	}
	if n, err := c.MinAllocBytes(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("workload.min_alloc_size must be positive")
	}
	if _, err := c.JitterBytes(); err != nil {
		return err
	}
	if _, err := c.DumpBufferBytes(); err != nil {
		return err
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	return nil
}

func (c *Config) CapacityBytes() (uint64, error) {
	return parseSize("heap.capacity", c.Heap.Capacity)
}

func (c *Config) MinAllocBytes() (uint64, error) {
	return parseSize("workload.min_alloc_size", c.Workload.MinAllocSize)
}

func (c *Config) JitterBytes() (uint64, error) {
	return parseSize("workload.alloc_jitter", c.Workload.AllocJitter)
}

func (c *Config) DumpBufferBytes() (uint64, error) {
	return parseSize("inspector.dump_buffer_size", c.Inspector.DumpBufferSize)
}

func parseSize(field, value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	size, err := bytesize.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", field, value, err)
	}
	return uint64(size), nil
}
