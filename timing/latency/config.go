// Package latency holds the per-functional-unit cycle counts the
// Tomasulo core's ALU, BRU, LSU, and SFU execute with. Adapted from
// the teacher's M2-calibrated TimingConfig, reduced to the four
// functional-unit kinds this core actually dispatches to (one
// fixed-latency instance of each, per the reference core's
// FunctionalUnit design). File-based loading and validation live in
// the config package, which loads this Config as part of the
// simulator's single YAML configuration file rather than a separate
// JSON one.
package latency

// Config holds the fixed execution latency, in cycles, of each
// functional unit kind.
type Config struct {
	// ALULatency is the cycle count for the ALU functional unit.
	// Default: 1 cycle.
	ALULatency uint64

	// BRULatency is the cycle count for the BRU functional unit.
	// Default: 1 cycle.
	BRULatency uint64

	// LSULatency is the cycle count for the LSU functional unit.
	// Default: 2 cycles.
	LSULatency uint64

	// SFULatency is the cycle count for the SFU (CSR) functional unit.
	// Default: 1 cycle.
	SFULatency uint64
}

// DefaultConfig returns a Config with the reference simulator's
// default per-FU latencies.
func DefaultConfig() *Config {
	return &Config{
		ALULatency: 1,
		BRULatency: 1,
		LSULatency: 2,
		SFULatency: 1,
	}
}
