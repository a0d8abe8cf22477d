// Package refmodel provides a single-issue sequential interpreter of
// the RV32I-subset ISA, used as a golden model to check the
// out-of-order core's committed results: same program, same final
// architectural state, regardless of how many cycles the Tomasulo
// machinery took to get there.
package refmodel

import (
	"fmt"
	"io"

	"github.com/smidthebest/ooriscv/emu"
	"github.com/smidthebest/ooriscv/insts"
)

// Interpreter executes one decoded instruction per Tick with no
// pipelining, renaming, or speculation: fetch, decode, and execute all
// happen inside the same Tick call, against the same emu.Memory and
// emu.RegFile collaborators the timed core uses.
type Interpreter struct {
	regs    emu.RegFile
	mem     *emu.Memory
	csr     *emu.CSRFile
	console *emu.Console
	decoder *insts.Decoder

	pc              uint32
	halted          bool
	cycleCount      uint64
	instrCount      uint64
	maxInstructions uint64 // 0 means no limit
}

// NewInterpreter creates an Interpreter over mem, writing console MMIO
// output to consoleOut.
func NewInterpreter(mem *emu.Memory, consoleOut io.Writer) *Interpreter {
	return &Interpreter{
		mem:     mem,
		csr:     emu.NewCSRFile(),
		console: emu.NewConsole(consoleOut),
		decoder: insts.NewDecoder(),
	}
}

// SetMaxInstructions bounds how many instructions Run will execute
// before giving up (0, the default, means no limit).
func (in *Interpreter) SetMaxInstructions(max uint64) {
	in.maxInstructions = max
}

// SetPC sets the program counter fetch resumes from.
func (in *Interpreter) SetPC(pc uint32) {
	in.pc = pc
}

// RegFile exposes the architectural register file for inspection.
func (in *Interpreter) RegFile() *emu.RegFile {
	return &in.regs
}

// Halted reports whether the interpreter has committed an exit
// instruction or hit its instruction limit.
func (in *Interpreter) Halted() bool {
	return in.halted
}

// CycleCount is the number of instructions executed; this interpreter
// models one instruction per cycle, matching the timed core only in
// committed-instruction count, never in elapsed cycles.
func (in *Interpreter) CycleCount() uint64 {
	return in.cycleCount
}

// Run ticks the interpreter until it halts and returns the exit code
// reported via x3, matching Core.CheckExit's non-riscv-test convention.
func (in *Interpreter) Run() uint32 {
	for !in.halted {
		in.Tick()
	}
	in.console.Flush()
	return in.regs.ReadReg(3)
}

// Tick fetches, decodes, and executes exactly one instruction.
func (in *Interpreter) Tick() {
	if in.halted {
		return
	}

	if in.maxInstructions > 0 && in.instrCount >= in.maxInstructions {
		in.halted = true
		return
	}

	word := in.mem.Read32(in.pc)
	instr := in.decoder.Decode(word, in.pc, in.instrCount)

	nextPC := in.pc + 4
	rs1 := in.regs.ReadReg(instr.Rs1)
	rs2 := in.regs.ReadReg(instr.Rs2)

	var result uint32
	switch instr.FU {
	case insts.FUALU:
		result = executeAluOp(instr, rs1, rs2)
	case insts.FUBRU:
		result, nextPC = in.executeBRU(instr, rs1, rs2)
	case insts.FULSU:
		result = in.executeLSU(instr, rs1, rs2)
	case insts.FUSFU:
		result = in.executeSFU(instr, rs1)
	}

	if instr.Flags.UseRd {
		in.regs.WriteReg(instr.Rd, result)
	}

	in.pc = nextPC
	in.cycleCount++
	in.instrCount++

	if instr.Flags.IsExit {
		in.halted = true
	}
}

func (in *Interpreter) executeBRU(instr *insts.Instruction, rs1, rs2 uint32) (result, nextPC uint32) {
	taken := executeBrOp(instr.Br, rs1, rs2)
	target := executeAluOp(instr, rs1, rs2)

	nextPC = instr.PC + 4
	if taken {
		nextPC = target
	}

	if instr.Br == insts.BrJAL || instr.Br == insts.BrJALR {
		result = instr.PC + 4
	}
	return result, nextPC
}

func (in *Interpreter) executeLSU(instr *insts.Instruction, rs1, rs2 uint32) uint32 {
	addr := executeAluOp(instr, rs1, rs2)
	width := 1 << (instr.Func3 & 0x3)

	if instr.Flags.IsStore {
		in.dMemWrite(addr, width, rs2)
		return 0
	}

	raw := in.dMemRead(addr, width)
	switch instr.Func3 {
	case 0, 1, 2:
		return signExtendWord(raw, width)
	case 4, 5:
		return raw
	default:
		panic(fmt.Sprintf("refmodel: invalid load func3=%d", instr.Func3))
	}
}

func (in *Interpreter) dMemRead(addr uint32, width int) uint32 {
	return in.mem.ReadBytes(addr, width)
}

func (in *Interpreter) dMemWrite(addr uint32, width int, value uint32) {
	if addr >= emu.DefaultConsoleAddr && addr < emu.DefaultConsoleAddr+emu.DefaultConsoleSize {
		in.console.WriteByte(byte(value))
		return
	}
	in.mem.WriteBytes(addr, width, value)
}

func (in *Interpreter) executeSFU(instr *insts.Instruction, rs1 uint32) uint32 {
	csrData := in.csr.Read(uint32(instr.Imm), in.instrCount)
	rdData := executeAluOp(instr, rs1, csrData)
	if rdData != csrData {
		in.csr.Write(uint32(instr.Imm), rdData)
	}
	return csrData
}

// executeAluOp mirrors pipeline.executeAluOp exactly: the same operand
// selection and opcode switch, duplicated here (rather than imported)
// because this interpreter must stay independent of the timed core's
// internals to serve as a trustworthy oracle for it.
func executeAluOp(instr *insts.Instruction, rs1Data, rs2Data uint32) uint32 {
	var s1 uint32
	switch {
	case instr.Flags.AluS1PC:
		s1 = instr.PC
	case instr.Flags.AluS1Rs1:
		s1 = uint32(instr.Rs1)
	default:
		s1 = rs1Data
	}
	if instr.Flags.AluS1Inv {
		s1 = ^s1
	}

	s2 := rs2Data
	if instr.Flags.AluS2Imm {
		s2 = uint32(instr.Imm)
	}

	switch instr.Op {
	case insts.AluADD:
		return s1 + s2
	case insts.AluSUB:
		return s1 - s2
	case insts.AluAND:
		return s1 & s2
	case insts.AluOR:
		return s1 | s2
	case insts.AluXOR:
		return s1 ^ s2
	case insts.AluSLL:
		return s1 << s2
	case insts.AluSRL:
		return s1 >> s2
	case insts.AluSRA:
		return uint32(int32(s1) >> s2)
	case insts.AluLTI:
		if int32(s1) < int32(s2) {
			return 1
		}
		return 0
	case insts.AluLTU:
		if s1 < s2 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func executeBrOp(op insts.BrOp, rs1, rs2 uint32) bool {
	switch op {
	case insts.BrJAL, insts.BrJALR:
		return true
	case insts.BrBEQ:
		return rs1 == rs2
	case insts.BrBNE:
		return rs1 != rs2
	case insts.BrBLT:
		return int32(rs1) < int32(rs2)
	case insts.BrBGE:
		return int32(rs1) >= int32(rs2)
	case insts.BrBLTU:
		return rs1 < rs2
	case insts.BrBGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

func signExtendWord(v uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(int32(int8(v)))
	case 2:
		return uint32(int32(int16(v)))
	default:
		return v
	}
}
