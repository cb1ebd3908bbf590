package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genc-murat/heapscope/config"
)

func testConfig(strategy string) *config.Config {
	cfg := config.Default()
	cfg.Simulation.Steps = 20
	cfg.Simulation.Seed = 42
	cfg.Heap.Capacity = "1MB"
	cfg.Inspector.Strategy = strategy
	return cfg
}

func TestNewSimulationRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"invalid config", func(c *config.Config) { c.Simulation.Steps = 0 }},
		{"unknown mode", func(c *config.Config) { c.Heap.Mode = "lfh" }},
		{"unknown strategy", func(c *config.Config) { c.Inspector.Strategy = "heapwalk" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("walk")
			tt.mutate(cfg)
			_, err := NewSimulation(cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunProducesConsistentSeries(t *testing.T) {
	for _, strategy := range []string{"walk", "xmldump", "jsondump"} {
		t.Run(strategy, func(t *testing.T) {
			sim, err := NewSimulation(testConfig(strategy))
			assert.NoError(t, err)

			series := sim.Run()
			assert.Equal(t, 20, series.Len())

			for i, r := range series.Records() {
				assert.Equal(t, i, r.TimeStep)
				assert.GreaterOrEqual(t, r.TotalHeapCommitted, r.TotalUserRequested)
				assert.LessOrEqual(t, r.BiggestFreeBlock, r.TotalFreeOnHeap)
				assert.GreaterOrEqual(t, r.ExternalFragmentationRatio, 0.0)
				assert.LessOrEqual(t, r.ExternalFragmentationRatio, 1.0)
			}

			assert.Equal(t, int64(0), sim.Metrics().DegradedSnapshotCount(),
				"a healthy run produces no degraded snapshots")
		})
	}
}

func TestRunSameSeedSameSeries(t *testing.T) {
	run := func() []uint64 {
		sim, err := NewSimulation(testConfig("walk"))
		assert.NoError(t, err)
		var requested []uint64
		for _, r := range sim.Run().Records() {
			requested = append(requested, r.TotalUserRequested)
		}
		return requested
	}
	assert.Equal(t, run(), run())
}

func TestRunReleasesEverything(t *testing.T) {
	sim, err := NewSimulation(testConfig("walk"))
	assert.NoError(t, err)

	sim.Run()
	m := sim.Metrics()
	assert.Equal(t, m.AllocCount(), m.FreeCount(),
		"every successful allocation is freed by the end of the run")
	assert.Equal(t, 0, sim.driver.LiveCount())
}

func TestRunPooledMode(t *testing.T) {
	cfg := testConfig("walk")
	cfg.Heap.Mode = "pooled"

	sim, err := NewSimulation(cfg)
	assert.NoError(t, err)

	series := sim.Run()
	assert.Equal(t, 20, series.Len())
}
