package predictor

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GSharePlus tableTag", func() {
	It("computes low 8 bits of PC XOR (GHR >> L), per the tagged-table tag formula", func() {
		g := NewGSharePlus(TageConfig{
			BaseSize:    64,
			TableSize:   32,
			HistLengths: []uint32{2, 4, 8},
		})
		g.ghr = 0b1011010101

		pc := uint32(0x2468)
		for i, length := range g.histLens {
			want := uint8(pc ^ uint32(g.ghr>>length))
			Expect(g.tableTag(pc, i)).To(Equal(want))
		}
	})

	It("changes when GHR shifts past the history length boundary", func() {
		g := NewGSharePlus(TageConfig{
			BaseSize:    64,
			TableSize:   32,
			HistLengths: []uint32{4},
		})
		pc := uint32(0x100)

		g.ghr = 0
		tagAllZero := g.tableTag(pc, 0)

		g.ghr = 1 << 4 // first bit outside the masked low-4 history window
		tagWithHighBit := g.tableTag(pc, 0)

		Expect(tagWithHighBit).NotTo(Equal(tagAllZero))
	})
})
