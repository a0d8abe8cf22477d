// Package latency provides functional-unit timing models for the
// Tomasulo core.
//
// Unlike a per-opcode ARM64 superscalar pipeline, this core dispatches
// every instruction to exactly one of four functional unit kinds
// (ALU/BRU/LSU/SFU), and each kind runs at one fixed latency. Latency
// lookup is therefore keyed on insts.FUKind rather than on individual
// opcodes.
package latency

import (
	"github.com/smidthebest/ooriscv/insts"
)

// Table provides functional-unit latency lookups.
type Table struct {
	config *Config
}

// NewTable creates a new latency table with default latency values.
func NewTable() *Table {
	return &Table{
		config: DefaultConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom config.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for functional
// unit kind kind, or 1 for a kind outside the four FU kinds.
func (t *Table) GetLatency(kind insts.FUKind) uint64 {
	switch kind {
	case insts.FUALU:
		return t.config.ALULatency
	case insts.FUBRU:
		return t.config.BRULatency
	case insts.FULSU:
		return t.config.LSULatency
	case insts.FUSFU:
		return t.config.SFULatency
	default:
		return 1
	}
}

