package pipeline

import (
	"fmt"
	"io"

	"github.com/smidthebest/ooriscv/emu"
	"github.com/smidthebest/ooriscv/insts"
	"github.com/smidthebest/ooriscv/predictor"
	"github.com/smidthebest/ooriscv/timing/latency"
)

// StartupAddr is the PC the core resets to, matching the reference
// simulator's STARTUP_ADDR.
const StartupAddr uint32 = 0

// idData is the fetch->decode latch payload.
type idData struct {
	instrCode uint32
	pc        uint32
	uuid      uint64
}

// isData is the decode->issue latch payload.
type isData struct {
	instr *insts.Instruction
}

// PerfStats tracks the core's committed-instruction and cycle counts.
type PerfStats struct {
	Cycles uint64
	Instrs uint64
}

// Config configures the size of every structural core resource.
type Config struct {
	ROBSize                uint32
	RSSize                 uint32
	Latencies              *latency.Config
	EnableBranchPrediction bool
	// Predictor, when set, is used in place of a default-configured
	// GShare when EnableBranchPrediction is true. Lets callers select
	// GSharePlus or a custom-sized GShare without the Core needing to
	// know about predictor construction details.
	Predictor predictor.Predictor
}

// DefaultConfig returns a Config matching the reference core's sizing.
func DefaultConfig() Config {
	return Config{
		ROBSize:   16,
		RSSize:    16,
		Latencies: latency.DefaultConfig(),
	}
}

// Core is the six-stage Tomasulo out-of-order core: fetch, decode,
// issue, execute, writeback, and commit, ticked in that reverse order
// so every stage reads pre-tick state within a cycle.
type Core struct {
	cfg Config

	mem     *emu.Memory
	regs    emu.RegFile
	csr     *emu.CSRFile
	console *emu.Console
	decoder *insts.Decoder
	gshare  predictor.Predictor

	pc uint32

	decodeQueue  *FiFoReg[idData]
	issueQueue   *FiFoReg[isData]
	fetchStalled *ValReg[bool]

	rob *ReorderBuffer
	rat *RegisterAliasTable
	rs  *ReservationStation
	rst *RegisterStatusTable
	cdb *CommonDataBus

	alu *FunctionalUnit
	bru *FunctionalUnit
	lsu *FunctionalUnit
	sfu *FunctionalUnit

	exited bool

	uuidCtr       uint64
	fetchedInstrs uint64
	perfStats     PerfStats

	trace io.Writer
}

// NewCore creates a Core wired to mem, with functional-unit latencies
// and resource sizing from cfg.
func NewCore(cfg Config, mem *emu.Memory, consoleOut io.Writer) *Core {
	if cfg.ROBSize == 0 {
		cfg.ROBSize = DefaultConfig().ROBSize
	}
	if cfg.RSSize == 0 {
		cfg.RSSize = DefaultConfig().RSSize
	}
	if cfg.Latencies == nil {
		cfg.Latencies = latency.DefaultConfig()
	}

	c := &Core{
		cfg:          cfg,
		mem:          mem,
		csr:          emu.NewCSRFile(),
		console:      emu.NewConsole(consoleOut),
		decoder:      insts.NewDecoder(),
		decodeQueue:  NewFiFoReg[idData](1),
		issueQueue:   NewFiFoReg[isData](1),
		fetchStalled: NewValReg(false),
		rob:          NewReorderBuffer(cfg.ROBSize),
		rat:          NewRegisterAliasTable(),
		rs:           NewReservationStation(cfg.RSSize),
		rst:          NewRegisterStatusTable(cfg.ROBSize),
		cdb:          NewCommonDataBus(),
	}
	if cfg.EnableBranchPrediction {
		c.gshare = cfg.Predictor
		if c.gshare == nil {
			c.gshare = predictor.NewGShare(predictor.DefaultConfig())
		}
	}

	lt := latency.NewTableWithConfig(cfg.Latencies)
	c.alu = NewFunctionalUnit(insts.FUALU, lt.GetLatency(insts.FUALU), c)
	c.bru = NewFunctionalUnit(insts.FUBRU, lt.GetLatency(insts.FUBRU), c)
	c.lsu = NewFunctionalUnit(insts.FULSU, lt.GetLatency(insts.FULSU), c)
	c.sfu = NewFunctionalUnit(insts.FUSFU, lt.GetLatency(insts.FUSFU), c)

	c.Reset()
	return c
}

// SetTrace enables per-stage trace output to w, mirroring the
// reference core's DT()-gated debug logging.
func (c *Core) SetTrace(w io.Writer) {
	c.trace = w
}

func (c *Core) trc(format string, args ...any) {
	if c.trace == nil {
		return
	}
	fmt.Fprintf(c.trace, format+"\n", args...)
}

// fus returns the four functional units in FU-dispatch order.
func (c *Core) fus() []*FunctionalUnit {
	return []*FunctionalUnit{c.alu, c.bru, c.lsu, c.sfu}
}

func (c *Core) fuFor(kind insts.FUKind) *FunctionalUnit {
	switch kind {
	case insts.FUALU:
		return c.alu
	case insts.FUBRU:
		return c.bru
	case insts.FULSU:
		return c.lsu
	case insts.FUSFU:
		return c.sfu
	default:
		return nil
	}
}

// Reset restores the core to its initial post-construction state.
func (c *Core) Reset() {
	c.decodeQueue.Reset()
	c.issueQueue.Reset()
	c.fetchStalled.Reset()
	c.rob = NewReorderBuffer(c.cfg.ROBSize)
	c.rat.Reset()
	c.rs.Reset()
	c.rst.Reset()
	c.regs.Reset()

	c.pc = StartupAddr
	c.uuidCtr = 0
	c.fetchedInstrs = 0
	c.perfStats = PerfStats{}
	c.exited = false
}

// Tick advances the core by one cycle, running every stage in
// commit->writeback->execute->issue->decode->fetch order so that each
// stage observes the state left by the previous cycle.
func (c *Core) Tick() {
	c.commit()
	c.writeback()
	c.execute()
	c.issue()
	c.decode()
	c.fetch()

	c.decodeQueue.Tick()
	c.issueQueue.Tick()
	c.fetchStalled.Tick()

	c.perfStats.Cycles++
}

func (c *Core) fetch() {
	if c.fetchStalled.Read() || c.decodeQueue.Full() {
		return
	}

	uuid := c.uuidCtr
	c.uuidCtr++

	instrCode := c.mem.Read32(c.pc)
	c.trc("Fetch: instr=0x%08x, PC=0x%08x (#%d)", instrCode, c.pc, uuid)

	c.decodeQueue.Push(idData{instrCode: instrCode, pc: c.pc, uuid: uuid})
	c.pc += 4
	c.fetchedInstrs++

	// This core has no in-flight speculation: fetch always stalls
	// again until decode (for non-branches) or the BRU (for branches)
	// releases it.
	c.fetchStalled.Write(true)
}

func (c *Core) decode() {
	if c.decodeQueue.Empty() || c.issueQueue.Full() {
		return
	}

	id := c.decodeQueue.Data()
	instr := c.decoder.Decode(id.instrCode, id.pc, id.uuid)

	c.trc("Decode: PC=0x%08x fu=%s op=%s br=%s", instr.PC, instr.FU, instr.Op, instr.Br)

	if instr.Br == insts.BrNone && !instr.Flags.IsExit {
		c.fetchStalled.Write(false)
	}

	c.issueQueue.Push(isData{instr: instr})
	c.decodeQueue.Pop()
}

func (c *Core) issue() {
	if c.issueQueue.Empty() || c.rs.Full() || c.rob.Full() {
		return
	}

	instr := c.issueQueue.Data().instr
	flags := instr.Flags

	rs1Data, rs1RSID := c.resolveOperand(instr.Rs1, flags.UseRs1)
	rs2Data, rs2RSID := c.resolveOperand(instr.Rs2, flags.UseRs2)

	robIndex := c.rob.Allocate(instr)

	if flags.UseRd && instr.Rd != 0 {
		c.rat.Set(instr.Rd, robIndex)
	}

	rsIndex := c.rs.Issue(robIndex, rs1RSID, rs2RSID, rs1Data, rs2Data, instr)
	c.rst.Set(robIndex, rsIndex)

	c.trc("Issue: PC=0x%08x rob=%d rs=%d", instr.PC, robIndex, rsIndex)

	c.issueQueue.Pop()
}

// resolveOperand returns the value for a source register, along with
// the RS index still producing it (-1 if already available). It reads
// the architectural register file directly unless the RAT says the
// value is being produced by an in-flight instruction, in which case
// it checks the ROB (ready: take the result; not ready: fall through
// to the RST to find the producing reservation station).
func (c *Core) resolveOperand(reg uint8, used bool) (uint32, int) {
	if !used {
		return 0, -1
	}

	robIndex, aliased := c.rat.Lookup(reg)
	if !aliased {
		return c.regs.ReadReg(reg), -1
	}

	entry := c.rob.GetEntry(robIndex)
	if entry.Ready {
		return entry.Result, -1
	}

	if rsIndex, ok := c.rst.Lookup(robIndex); ok {
		return 0, rsIndex
	}
	return 0, -1
}

func (c *Core) execute() {
	for _, fu := range c.fus() {
		fu.Execute()
	}

	// The CDB serves at most one functional unit per cycle.
	if c.cdb.Empty() {
		for _, fu := range c.fus() {
			if fu.Busy() && fu.Done() {
				out := fu.Output()
				c.cdb.Push(out.Result, out.ROBIndex, out.RSIndex)
				fu.Clear()
				break
			}
		}
	}

	for rsIndex := uint32(0); rsIndex < c.rs.Size(); rsIndex++ {
		entry := c.rs.GetEntry(rsIndex)
		if !entry.Valid || entry.Running || !entry.OperandsReady() {
			continue
		}
		if c.rs.Locked(rsIndex) {
			continue
		}
		fu := c.fuFor(entry.Instr.FU)
		if fu == nil || fu.Busy() {
			continue
		}
		fu.Issue(entry.Instr, entry.ROBIndex, int(rsIndex), entry.RS1Data, entry.RS2Data)
		entry.Running = true
		c.rs.UpdateEntry(rsIndex, entry)
	}
}

func (c *Core) writeback() {
	if c.cdb.Empty() {
		return
	}
	data := c.cdb.Data()

	for rsIndex := uint32(0); rsIndex < c.rs.Size(); rsIndex++ {
		entry := c.rs.GetEntry(rsIndex)
		if !entry.Valid {
			continue
		}
		entry.UpdateOperands(data)
		c.rs.UpdateEntry(rsIndex, entry)
	}

	c.rs.Release(uint32(data.RSIndex))
	c.rst.Clear(data.ROBIndex)
	c.rob.Update(data)
	c.cdb.Pop()
}

func (c *Core) commit() {
	if c.rob.Empty() {
		return
	}

	headIndex := c.rob.HeadIndex()
	head := c.rob.GetEntry(headIndex)
	if !head.Ready {
		return
	}

	instr := head.Instr
	if instr.Flags.UseRd {
		c.regs.WriteReg(instr.Rd, head.Result)
		c.rat.ClearIfMatches(instr.Rd, headIndex)
	}

	c.rob.Pop()

	c.trc("Commit: PC=0x%08x", instr.PC)

	if c.perfStats.Instrs > c.fetchedInstrs {
		panic("pipeline: committed more instructions than fetched")
	}
	c.perfStats.Instrs++

	if instr.Flags.IsExit {
		c.exited = true
	}
}

// SetPC implements CoreServices: redirects the program counter,
// called by the BRU on a taken branch/jump.
func (c *Core) SetPC(pc uint32) {
	c.pc = pc
}

// DMemRead implements CoreServices.
func (c *Core) DMemRead(addr uint32, width int) uint32 {
	return c.mem.ReadBytes(addr, width)
}

// DMemWrite implements CoreServices, diverting writes to the console
// MMIO address into the line-buffered console writer.
func (c *Core) DMemWrite(addr uint32, width int, value uint32) {
	if addr >= emu.DefaultConsoleAddr && addr < emu.DefaultConsoleAddr+emu.DefaultConsoleSize {
		c.console.WriteByte(byte(value))
		return
	}
	c.mem.WriteBytes(addr, width, value)
}

// GetCSR implements CoreServices.
func (c *Core) GetCSR(addr uint32) uint32 {
	return c.csr.Read(addr, c.perfStats.Instrs)
}

// SetCSR implements CoreServices.
func (c *Core) SetCSR(addr uint32, value uint32) {
	c.csr.Write(addr, value)
}

// ReleaseFetchStall implements CoreServices: the BRU calls this
// unconditionally, taken or not, to unblock fetch once a branch
// resolves.
func (c *Core) ReleaseFetchStall() {
	c.fetchStalled.Write(false)
}

// NotifyBranchResolved implements CoreServices. When branch prediction
// is enabled, it trains the gshare predictor with the actual outcome
// of a resolved branch. This core never redirects fetch down a
// predicted path, so the predictor's accuracy is purely observational
// here: it never causes or prevents a squash, since nothing downstream
// of fetch is ever speculative.
func (c *Core) NotifyBranchResolved(pc uint32, taken bool, target uint32) {
	if c.gshare == nil {
		return
	}
	c.gshare.Predict(pc)
	c.gshare.Update(pc, taken, target)
}

// CheckExit reports whether the core has committed an exit
// instruction, and the reported exit code: for riscv-tests-style
// binaries (riscvTest=true) the convention is 1-x3 (0 only when x3
// equals 1, the PASS sentinel); otherwise the code is x3 verbatim.
func (c *Core) CheckExit(riscvTest bool) (uint32, bool) {
	if !c.exited {
		return 0, false
	}
	ec := c.regs.ReadReg(3)
	if riscvTest {
		return 1 - ec, true
	}
	return ec, true
}

// Running reports whether the core still has outstanding instructions
// to commit, or hasn't fetched anything yet.
func (c *Core) Running() bool {
	return c.perfStats.Instrs != c.fetchedInstrs || c.fetchedInstrs == 0
}

// Stats returns the accumulated performance counters.
func (c *Core) Stats() PerfStats {
	return c.perfStats
}

// FlushConsole flushes any buffered partial console line.
func (c *Core) FlushConsole() {
	c.console.Flush()
}

// RegFile exposes the architectural register file for inspection
// (tests, CLI result reporting).
func (c *Core) RegFile() *emu.RegFile {
	return &c.regs
}

// Predictor returns the core's branch predictor, or nil if branch
// prediction is disabled.
func (c *Core) Predictor() predictor.Predictor {
	return c.gshare
}
