package emu

import "fmt"

// Standard and machine-custom CSR addresses this simulator recognizes.
// Matches the VX_CSR_* constants in the reference core exactly.
const (
	CSRMHartID  = 0xF14
	CSRSATP     = 0x180
	CSRPMPCfg0  = 0x3A0
	CSRPMPAddr0 = 0x3B0
	CSRMStatus  = 0x300
	CSRMISA     = 0x301
	CSRMedeleg  = 0x302
	CSRMideleg  = 0x303
	CSRMie      = 0x304
	CSRMtvec    = 0x305
	CSRMepc     = 0x341
	CSRMNStatus = 0x744
	CSRMCycle   = 0xB00
	CSRMCycleH  = 0xB80
	CSRMInstret = 0xB02
	CSRMInstretH = 0xB82
)

// CSRFile answers CSR reads and writes for the SFU. It carries no
// state of its own for the read-only synthetic registers: mcycle and
// minstret are derived live from the retired-instruction count handed
// in by the core on every read, reproducing the reference core's
// "stall-independent mcycle workaround for software timing
// consistency" (ideal_mcycles = instrs - 1 + 5) verbatim.
type CSRFile struct{}

// NewCSRFile constructs an empty CSR file.
func NewCSRFile() *CSRFile {
	return &CSRFile{}
}

// Read returns the value of the CSR at addr. instrsRetired is the
// core's running retired-instruction count, used to synthesize mcycle/
// mcycle_h and minstret/minstret_h. Panics on an unrecognized address,
// matching the reference's std::abort() on an invalid CSR read.
func (c *CSRFile) Read(addr uint32, instrsRetired uint64) uint32 {
	switch addr {
	case CSRMHartID, CSRSATP, CSRPMPCfg0, CSRPMPAddr0, CSRMStatus, CSRMISA,
		CSRMedeleg, CSRMideleg, CSRMie, CSRMtvec, CSRMepc, CSRMNStatus:
		return 0
	case CSRMCycle:
		ideal := instrsRetired - 1 + 5
		return uint32(ideal & 0xffffffff)
	case CSRMCycleH:
		ideal := instrsRetired - 1 + 5
		return uint32(ideal >> 32)
	case CSRMInstret:
		return uint32(instrsRetired & 0xffffffff)
	case CSRMInstretH:
		return uint32(instrsRetired >> 32)
	default:
		panic(fmt.Sprintf("emu: invalid CSR read addr=0x%x", addr))
	}
}

// Write accepts writes to the writable-but-inert CSRs as no-ops.
// Panics on an unrecognized address, matching the reference's
// std::abort() on an invalid CSR write.
func (c *CSRFile) Write(addr uint32, value uint32) {
	switch addr {
	case CSRSATP, CSRMStatus, CSRMedeleg, CSRMideleg, CSRMie, CSRMtvec,
		CSRMepc, CSRPMPCfg0, CSRPMPAddr0, CSRMNStatus:
		// accepted, no effect
	default:
		panic(fmt.Sprintf("emu: invalid CSR write addr=0x%x, value=0x%x", addr, value))
	}
}
