package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smidthebest/ooriscv/insts"
	"github.com/smidthebest/ooriscv/timing/pipeline"
)

// fakeCoreServices is a minimal CoreServices double for exercising
// functional units in isolation from the full Core.
type fakeCoreServices struct {
	pc              uint32
	mem             map[uint32]uint32
	csrs            map[uint32]uint32
	fetchReleased   bool
	branchResolved  bool
	branchTaken     bool
	branchTarget    uint32
}

func newFakeCoreServices() *fakeCoreServices {
	return &fakeCoreServices{mem: map[uint32]uint32{}, csrs: map[uint32]uint32{}}
}

func (f *fakeCoreServices) SetPC(pc uint32) { f.pc = pc }
func (f *fakeCoreServices) DMemRead(addr uint32, width int) uint32 {
	return f.mem[addr]
}
func (f *fakeCoreServices) DMemWrite(addr uint32, width int, value uint32) {
	mask := uint32(1)<<(8*width) - 1
	if width == 4 {
		mask = 0xffffffff
	}
	f.mem[addr] = value & mask
}
func (f *fakeCoreServices) GetCSR(addr uint32) uint32         { return f.csrs[addr] }
func (f *fakeCoreServices) SetCSR(addr uint32, value uint32)  { f.csrs[addr] = value }
func (f *fakeCoreServices) ReleaseFetchStall()                { f.fetchReleased = true }
func (f *fakeCoreServices) NotifyBranchResolved(pc uint32, taken bool, target uint32) {
	f.branchResolved = true
	f.branchTaken = taken
	f.branchTarget = target
}

func runToDone(fu *pipeline.FunctionalUnit) {
	for i := 0; i < 100 && !fu.Done(); i++ {
		fu.Execute()
	}
}

var _ = Describe("FunctionalUnit", func() {
	var core *fakeCoreServices

	BeforeEach(func() {
		core = newFakeCoreServices()
	})

	Describe("ALU", func() {
		It("computes ADD after its configured latency", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUALU, 2, core)
			instr := &insts.Instruction{Op: insts.AluADD, Flags: insts.ExeFlags{}}
			fu.Issue(instr, 0, 0, 10, 32)

			fu.Execute()
			Expect(fu.Done()).To(BeFalse())
			fu.Execute()
			Expect(fu.Done()).To(BeTrue())
			Expect(fu.Output().Result).To(Equal(uint32(42)))
		})

		It("uses PC as operand 1 for AUIPC-style ops", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUALU, 1, core)
			instr := &insts.Instruction{PC: 0x1000, Op: insts.AluADD, Imm: 0x100, Flags: insts.ExeFlags{AluS1PC: true, AluS2Imm: true}}
			fu.Issue(instr, 0, 0, 0, 0)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(0x1100)))
		})

		It("treats the raw rs1 field as a literal for CSR-immediate forms", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUALU, 1, core)
			instr := &insts.Instruction{Rs1: 5, Op: insts.AluOR, Flags: insts.ExeFlags{AluS1Rs1: true}}
			fu.Issue(instr, 0, 0, 0, 9)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(5 | 9)))
		})

		It("inverts operand 1 to realize AND-NOT for CSRRC", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUALU, 1, core)
			instr := &insts.Instruction{Op: insts.AluAND, Flags: insts.ExeFlags{AluS1Inv: true}}
			fu.Issue(instr, 0, 0, 0b0110, 0b1111)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(0b1111 &^ 0b0110)))
		})
	})

	Describe("BRU", func() {
		It("always redirects PC on JAL and returns PC+4", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUBRU, 1, core)
			instr := &insts.Instruction{PC: 0x100, Br: insts.BrJAL, Op: insts.AluADD, Imm: 0x20, Flags: insts.ExeFlags{AluS1PC: true, AluS2Imm: true}}
			fu.Issue(instr, 0, 0, 0, 0)
			runToDone(fu)
			Expect(core.pc).To(Equal(uint32(0x120)))
			Expect(fu.Output().Result).To(Equal(uint32(0x104)))
		})

		It("does not redirect PC when a conditional branch isn't taken", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUBRU, 1, core)
			instr := &insts.Instruction{PC: 0x100, Br: insts.BrBEQ, Op: insts.AluADD, Imm: 0x20, Flags: insts.ExeFlags{AluS1PC: true, AluS2Imm: true}}
			fu.Issue(instr, 0, 0, 1, 2)
			runToDone(fu)
			Expect(core.pc).To(Equal(uint32(0)))
		})

		It("always releases the fetch stall, taken or not", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUBRU, 1, core)
			instr := &insts.Instruction{Br: insts.BrBEQ, Op: insts.AluADD}
			fu.Issue(instr, 0, 0, 1, 2)
			runToDone(fu)
			Expect(core.fetchReleased).To(BeTrue())
		})

		It("reports the resolved outcome back to the core", func() {
			fu := pipeline.NewFunctionalUnit(insts.FUBRU, 1, core)
			instr := &insts.Instruction{PC: 0x40, Br: insts.BrBLT, Op: insts.AluADD, Imm: 8, Flags: insts.ExeFlags{AluS1PC: true, AluS2Imm: true}}
			fu.Issue(instr, 0, 0, 1, 2)
			runToDone(fu)
			Expect(core.branchResolved).To(BeTrue())
			Expect(core.branchTaken).To(BeTrue())
			Expect(core.branchTarget).To(Equal(uint32(0x48)))
		})
	})

	Describe("LSU", func() {
		It("sign-extends a byte load (LB)", func() {
			core.mem[0x200] = 0xff
			fu := pipeline.NewFunctionalUnit(insts.FULSU, 1, core)
			instr := &insts.Instruction{Func3: 0, Op: insts.AluADD, Imm: 0x100, Flags: insts.ExeFlags{AluS2Imm: true, IsLoad: true}}
			fu.Issue(instr, 0, 0, 0x100, 0)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(0xffffffff)))
		})

		It("zero-extends an unsigned byte load (LBU)", func() {
			core.mem[0x200] = 0xff
			fu := pipeline.NewFunctionalUnit(insts.FULSU, 1, core)
			instr := &insts.Instruction{Func3: 4, Op: insts.AluADD, Imm: 0x100, Flags: insts.ExeFlags{AluS2Imm: true, IsLoad: true}}
			fu.Issue(instr, 0, 0, 0x100, 0)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(0xff)))
		})

		It("stores a word at rs1+imm using the rs2 value", func() {
			fu := pipeline.NewFunctionalUnit(insts.FULSU, 1, core)
			instr := &insts.Instruction{Func3: 2, Op: insts.AluADD, Imm: 4, Flags: insts.ExeFlags{AluS2Imm: true, IsStore: true}}
			fu.Issue(instr, 0, 0, 0x300, 0xdeadbeef)
			runToDone(fu)
			Expect(core.mem[0x304]).To(Equal(uint32(0xdeadbeef)))
		})
	})

	Describe("SFU", func() {
		It("broadcasts the CSR's old value and writes the new one only if changed", func() {
			core.csrs[0xB00] = 5
			fu := pipeline.NewFunctionalUnit(insts.FUSFU, 1, core)
			instr := &insts.Instruction{Imm: 0xB00, Op: insts.AluOR, Flags: insts.ExeFlags{}}
			fu.Issue(instr, 0, 0, 0x8, 0)
			runToDone(fu)
			Expect(fu.Output().Result).To(Equal(uint32(5)))
			Expect(core.csrs[0xB00]).To(Equal(uint32(5 | 0x8)))
		})

		It("skips the write when the computed value equals the old CSR value", func() {
			core.csrs[0xB00] = 5
			fu := pipeline.NewFunctionalUnit(insts.FUSFU, 1, core)
			instr := &insts.Instruction{Imm: 0xB00, Op: insts.AluOR, Flags: insts.ExeFlags{}}
			fu.Issue(instr, 0, 0, 0, 0) // CSRRS x0,...,x0: result OR 0 == csr
			runToDone(fu)
			Expect(core.csrs[0xB00]).To(Equal(uint32(5)))
		})
	})
})
