package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smidthebest/ooriscv/timing/pipeline"
)

var _ = Describe("ValReg", func() {
	It("holds writes pending until Tick", func() {
		v := pipeline.NewValReg(0)
		v.Write(42)
		Expect(v.Read()).To(Equal(0))
		v.Tick()
		Expect(v.Read()).To(Equal(42))
	})

	It("resets to its initial value", func() {
		v := pipeline.NewValReg(7)
		v.Write(99)
		v.Tick()
		v.Reset()
		Expect(v.Read()).To(Equal(7))
	})
})

var _ = Describe("FiFoReg", func() {
	var f *pipeline.FiFoReg[int]

	BeforeEach(func() {
		f = pipeline.NewFiFoReg[int](1)
	})

	It("starts empty", func() {
		Expect(f.Empty()).To(BeTrue())
		Expect(f.Full()).To(BeFalse())
	})

	It("counts a pending push as occupying a slot: not empty, and full at depth one", func() {
		f.Push(5)
		Expect(f.Empty()).To(BeFalse()) // push pending counts as occupied
		Expect(f.Full()).To(BeTrue())
		f.Tick()
		Expect(f.Data()).To(Equal(5))
	})

	It("reports empty as soon as a pop is pending, before Tick commits it", func() {
		f.Push(5)
		f.Tick()
		f.Pop()
		Expect(f.Empty()).To(BeTrue())
		f.Tick()
		Expect(f.Empty()).To(BeTrue())
	})

	It("pops then pushes within the same Tick", func() {
		f.Push(1)
		f.Tick()
		f.Pop()
		f.Push(2)
		f.Tick()
		Expect(f.Data()).To(Equal(2))
	})

	It("panics when pushing into a full buffer", func() {
		f.Push(1)
		Expect(func() { f.Push(2) }).To(Panic())
	})

	It("panics when popping an empty buffer", func() {
		Expect(func() { f.Pop() }).To(Panic())
	})

	It("supports depth greater than one", func() {
		f2 := pipeline.NewFiFoReg[int](2)
		f2.Push(1)
		f2.Tick()
		Expect(f2.Full()).To(BeFalse())
		f2.Push(2)
		f2.Tick()
		Expect(f2.Full()).To(BeTrue())
		Expect(f2.Data()).To(Equal(1))
	})
})
