package pipeline

import "github.com/smidthebest/ooriscv/insts"

// CoreServices is the set of core-level operations a functional unit
// needs to perform its side effects: redirecting the PC, accessing
// data memory, reading/writing CSRs, and releasing the fetch stall.
// Core implements this interface; it exists so functional units don't
// need the full Core type to do their work.
type CoreServices interface {
	SetPC(pc uint32)
	DMemRead(addr uint32, width int) uint32
	DMemWrite(addr uint32, width int, value uint32)
	GetCSR(addr uint32) uint32
	SetCSR(addr uint32, value uint32)
	ReleaseFetchStall()
	NotifyBranchResolved(pc uint32, taken bool, target uint32)
}

// FUOutput is the result a functional unit hands to the CDB arbiter
// once it has finished executing.
type FUOutput struct {
	ROBIndex int
	RSIndex  int
	Result   uint32
}

// FunctionalUnit is the busy/done execution-latency state machine
// shared by ALU, BRU, LSU, and SFU: Issue starts a new instruction,
// Execute advances it one cycle and performs the op once its latency
// elapses, and Clear returns it to idle after its result is consumed.
type FunctionalUnit struct {
	kind    insts.FUKind
	latency uint64
	cycles  uint64
	busy    bool
	done    bool

	instr    *insts.Instruction
	robIndex int
	rsIndex  int
	rs1Value uint32
	rs2Value uint32
	result   uint32

	core CoreServices
}

// NewFunctionalUnit creates a functional unit of the given kind with a
// fixed execution latency, bound to core for its side effects.
func NewFunctionalUnit(kind insts.FUKind, latency uint64, core CoreServices) *FunctionalUnit {
	return &FunctionalUnit{kind: kind, latency: latency, core: core}
}

// Kind returns the functional unit's kind.
func (f *FunctionalUnit) Kind() insts.FUKind {
	return f.kind
}

// Busy reports whether the unit currently holds an in-flight
// instruction.
func (f *FunctionalUnit) Busy() bool {
	return f.busy
}

// Done reports whether the in-flight instruction has finished
// executing and is awaiting CDB arbitration.
func (f *FunctionalUnit) Done() bool {
	return f.done
}

// Issue dispatches instr to this unit.
func (f *FunctionalUnit) Issue(instr *insts.Instruction, robIndex, rsIndex int, rs1Value, rs2Value uint32) {
	f.instr = instr
	f.robIndex = robIndex
	f.rsIndex = rsIndex
	f.rs1Value = rs1Value
	f.rs2Value = rs2Value
	f.busy = true
	f.done = false
	f.cycles = 0
}

// Execute advances the unit by one cycle, performing its operation and
// setting Done once the configured latency has elapsed.
func (f *FunctionalUnit) Execute() {
	if !f.busy || f.done {
		return
	}
	f.cycles++
	if f.cycles == f.latency {
		f.doExecute()
		f.done = true
	}
}

// Output returns the unit's result once Done.
func (f *FunctionalUnit) Output() FUOutput {
	return FUOutput{ROBIndex: f.robIndex, RSIndex: f.rsIndex, Result: f.result}
}

// Clear returns the unit to idle so it can accept a new Issue.
func (f *FunctionalUnit) Clear() {
	f.busy = false
	f.done = false
}

func (f *FunctionalUnit) doExecute() {
	switch f.kind {
	case insts.FUALU:
		f.result = executeAluOp(f.instr, f.rs1Value, f.rs2Value)
	case insts.FUBRU:
		f.doBRU()
	case insts.FULSU:
		f.doLSU()
	case insts.FUSFU:
		f.doSFU()
	}
}

// executeAluOp implements the shared ALU-operand-selection machinery
// used directly by the ALU and indirectly (for address/target/CSR-op
// computation) by BRU, LSU, and SFU.
func executeAluOp(instr *insts.Instruction, rs1Data, rs2Data uint32) uint32 {
	flags := instr.Flags

	var aluS1 uint32
	switch {
	case flags.AluS1PC:
		aluS1 = instr.PC
	case flags.AluS1Rs1:
		aluS1 = uint32(instr.Rs1)
	default:
		aluS1 = rs1Data
	}
	if flags.AluS1Inv {
		aluS1 = ^aluS1
	}

	var aluS2 uint32
	if flags.AluS2Imm {
		aluS2 = uint32(instr.Imm)
	} else {
		aluS2 = rs2Data
	}

	switch instr.Op {
	case insts.AluNone:
		return 0
	case insts.AluADD:
		return aluS1 + aluS2
	case insts.AluSUB:
		return aluS1 - aluS2
	case insts.AluAND:
		return aluS1 & aluS2
	case insts.AluOR:
		return aluS1 | aluS2
	case insts.AluXOR:
		return aluS1 ^ aluS2
	case insts.AluSLL:
		return aluS1 << aluS2
	case insts.AluSRL:
		return aluS1 >> aluS2
	case insts.AluSRA:
		return uint32(int32(aluS1) >> aluS2)
	case insts.AluLTI:
		if int32(aluS1) < int32(aluS2) {
			return 1
		}
		return 0
	case insts.AluLTU:
		if aluS1 < aluS2 {
			return 1
		}
		return 0
	default:
		panic("pipeline: unsupported ALU op")
	}
}

func executeBrOp(op insts.BrOp, rs1Data, rs2Data uint32) bool {
	switch op {
	case insts.BrNone:
		return false
	case insts.BrJAL, insts.BrJALR:
		return true
	case insts.BrBEQ:
		return rs1Data == rs2Data
	case insts.BrBNE:
		return rs1Data != rs2Data
	case insts.BrBLT:
		return int32(rs1Data) < int32(rs2Data)
	case insts.BrBGE:
		return int32(rs1Data) >= int32(rs2Data)
	case insts.BrBLTU:
		return rs1Data < rs2Data
	case insts.BrBGEU:
		return rs1Data >= rs2Data
	default:
		panic("pipeline: unsupported branch op")
	}
}

func (f *FunctionalUnit) doBRU() {
	taken := executeBrOp(f.instr.Br, f.rs1Value, f.rs2Value)
	var target uint32
	if taken {
		target = executeAluOp(f.instr, f.rs1Value, f.rs2Value)
		f.core.SetPC(target)
		if f.instr.Br == insts.BrJAL || f.instr.Br == insts.BrJALR {
			f.result = f.instr.PC + 4
		}
	}
	f.core.NotifyBranchResolved(f.instr.PC, taken, target)
	f.core.ReleaseFetchStall()
}

func (f *FunctionalUnit) doLSU() {
	flags := f.instr.Flags
	func3 := f.instr.Func3
	dataBytes := 1 << (func3 & 0x3)

	switch {
	case flags.IsLoad:
		addr := executeAluOp(f.instr, f.rs1Value, f.rs2Value)
		readData := f.core.DMemRead(addr, dataBytes)
		dataWidth := 8 * dataBytes
		switch func3 {
		case 0, 1, 2: // LB, LH, LW
			f.result = signExtendWord(readData, dataWidth)
		case 4, 5: // LBU, LHU
			f.result = readData
		default:
			panic("pipeline: unsupported load func3")
		}
	case flags.IsStore:
		addr := executeAluOp(f.instr, f.rs1Value, f.rs2Value)
		switch func3 {
		case 0, 1, 2: // SB, SH, SW
			f.core.DMemWrite(addr, dataBytes, f.rs2Value)
		default:
			panic("pipeline: unsupported store func3")
		}
	}
}

func signExtendWord(v uint32, width int) uint32 {
	if width >= 32 {
		return v
	}
	shift := 32 - width
	return uint32(int32(v<<shift) >> shift)
}

func (f *FunctionalUnit) doSFU() {
	csrData := f.core.GetCSR(uint32(f.instr.Imm))
	rdData := executeAluOp(f.instr, f.rs1Value, csrData)
	if rdData != csrData {
		f.core.SetCSR(uint32(f.instr.Imm), rdData)
	}
	f.result = csrData
}
