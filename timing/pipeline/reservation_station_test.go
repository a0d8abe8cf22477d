package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smidthebest/ooriscv/insts"
	"github.com/smidthebest/ooriscv/timing/pipeline"
)

var _ = Describe("ReservationStation", func() {
	var rs *pipeline.ReservationStation
	aluInstr := &insts.Instruction{FU: insts.FUALU}
	lsuInstr := &insts.Instruction{FU: insts.FULSU}

	BeforeEach(func() {
		rs = pipeline.NewReservationStation(2)
	})

	It("starts empty", func() {
		Expect(rs.Empty()).To(BeTrue())
		Expect(rs.Full()).To(BeFalse())
	})

	It("issues into distinct free slots and fills up", func() {
		a := rs.Issue(0, -1, -1, 1, 2, aluInstr)
		b := rs.Issue(1, -1, -1, 3, 4, aluInstr)
		Expect(a).NotTo(Equal(b))
		Expect(rs.Full()).To(BeTrue())
	})

	It("panics issuing into a full station", func() {
		rs.Issue(0, -1, -1, 0, 0, aluInstr)
		rs.Issue(1, -1, -1, 0, 0, aluInstr)
		Expect(func() { rs.Issue(2, -1, -1, 0, 0, aluInstr) }).To(Panic())
	})

	It("returns a released slot to the free list for reuse", func() {
		idx := rs.Issue(0, -1, -1, 0, 0, aluInstr)
		rs.Release(idx)
		Expect(rs.Empty()).To(BeTrue())
		idx2 := rs.Issue(1, -1, -1, 0, 0, aluInstr)
		Expect(idx2).To(Equal(idx))
	})

	It("reports operands ready only once both RS1Index and RS2Index are -1", func() {
		idx := rs.Issue(0, 3, -1, 0, 0, aluInstr)
		entry := rs.GetEntry(idx)
		Expect(entry.OperandsReady()).To(BeFalse())

		entry.UpdateOperands(pipeline.CDBData{Result: 77, RSIndex: 3})
		Expect(entry.OperandsReady()).To(BeTrue())
		Expect(entry.RS1Data).To(Equal(uint32(77)))
	})

	Describe("LSU ticket barrier", func() {
		It("locks a second in-flight LSU instruction until the first releases", func() {
			first := rs.Issue(0, -1, -1, 0, 0, lsuInstr)
			second := rs.Issue(1, -1, -1, 0, 0, lsuInstr)

			Expect(rs.Locked(first)).To(BeFalse())
			Expect(rs.Locked(second)).To(BeTrue())

			rs.Release(first)
			Expect(rs.Locked(second)).To(BeFalse())
		})

		It("never locks non-LSU instructions", func() {
			idx := rs.Issue(0, -1, -1, 0, 0, aluInstr)
			Expect(rs.Locked(idx)).To(BeFalse())
		})
	})
})
