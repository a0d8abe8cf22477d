// Package config loads the YAML simulator configuration consumed by
// the CLI: core resource sizing, per-FU latencies, and predictor
// selection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/smidthebest/ooriscv/predictor"
	"github.com/smidthebest/ooriscv/timing/latency"
	"github.com/smidthebest/ooriscv/timing/pipeline"
)

// SimConfig represents the simulator configuration.
type SimConfig struct {
	// Core structural sizing
	ROBSize int `yaml:"robSize"`
	RSSize  int `yaml:"rsSize"`

	// Per-functional-unit latency, cycles
	ALULatency int `yaml:"aluLatency"`
	BRULatency int `yaml:"bruLatency"`
	LSULatency int `yaml:"lsuLatency"`
	SFULatency int `yaml:"sfuLatency"`

	// Branch prediction
	EnableBranchPrediction bool   `yaml:"enableBranchPrediction"`
	PredictorKind          string `yaml:"predictorKind"` // "gshare" or "gshare-plus"
	PHTSize                int    `yaml:"phtSize"`
	BHRBits                int    `yaml:"bhrBits"`
	BTBSize                int    `yaml:"btbSize"`
	TageTableSize          int    `yaml:"tageTableSize"`

	// Program loading
	ProgramPath string `yaml:"programPath"`
	RiscvTest   bool   `yaml:"riscvTest"`
}

// LoadConfig loads a SimConfig from a YAML file.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfig checks that cfg describes a constructible core.
func validateConfig(cfg *SimConfig) error {
	if cfg.ROBSize <= 0 {
		return fmt.Errorf("rob size must be positive")
	}
	if cfg.RSSize <= 0 {
		return fmt.Errorf("rs size must be positive")
	}
	if cfg.ALULatency <= 0 || cfg.BRULatency <= 0 || cfg.LSULatency <= 0 || cfg.SFULatency <= 0 {
		return fmt.Errorf("functional unit latencies must be positive")
	}

	validPredictors := map[string]bool{"gshare": true, "gshare-plus": true}
	if cfg.EnableBranchPrediction && !validPredictors[cfg.PredictorKind] {
		return fmt.Errorf("unsupported predictor kind: %s", cfg.PredictorKind)
	}

	return nil
}

// DefaultConfig returns the default simulator configuration, matching
// pipeline.DefaultConfig's resource sizing and latency.DefaultConfig's
// per-FU latencies.
func DefaultConfig() *SimConfig {
	lat := latency.DefaultConfig()
	return &SimConfig{
		ROBSize: 16,
		RSSize:  16,

		ALULatency: int(lat.ALULatency),
		BRULatency: int(lat.BRULatency),
		LSULatency: int(lat.LSULatency),
		SFULatency: int(lat.SFULatency),

		EnableBranchPrediction: false,
		PredictorKind:          "gshare",
		PHTSize:                int(predictor.DefaultConfig().PHTSize),
		BHRBits:                int(predictor.DefaultConfig().BHRBits),
		BTBSize:                int(predictor.DefaultConfig().BTBSize),
		TageTableSize:          int(predictor.DefaultTageConfig().TableSize),

		RiscvTest: false,
	}
}

// CoreConfig translates a SimConfig into a pipeline.Config ready to
// build a Core with.
func (c *SimConfig) CoreConfig() pipeline.Config {
	cfg := pipeline.Config{
		ROBSize: uint32(c.ROBSize),
		RSSize:  uint32(c.RSSize),
		Latencies: &latency.Config{
			ALULatency: uint64(c.ALULatency),
			BRULatency: uint64(c.BRULatency),
			LSULatency: uint64(c.LSULatency),
			SFULatency: uint64(c.SFULatency),
		},
		EnableBranchPrediction: c.EnableBranchPrediction,
	}
	if c.EnableBranchPrediction {
		cfg.Predictor = c.buildPredictor()
	}
	return cfg
}

// buildPredictor constructs the configured predictor kind.
func (c *SimConfig) buildPredictor() predictor.Predictor {
	if c.PredictorKind == "gshare-plus" {
		tcfg := predictor.DefaultTageConfig()
		tcfg.TableSize = uint32(c.TageTableSize)
		return predictor.NewGSharePlus(tcfg)
	}
	return predictor.NewGShare(predictor.Config{
		PHTSize: uint32(c.PHTSize),
		BHRBits: uint32(c.BHRBits),
		BTBSize: uint32(c.BTBSize),
	})
}
