package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smidthebest/ooriscv/predictor"
)

var _ = Describe("GSharePlus", func() {
	var g *predictor.GSharePlus

	BeforeEach(func() {
		g = predictor.NewGSharePlus(predictor.TageConfig{
			BaseSize:    64,
			TableSize:   32,
			HistLengths: []uint32{2, 4, 8},
		})
	})

	It("falls back to the base table when no tagged table has learned the PC", func() {
		pred := g.Predict(0x1000)
		Expect(pred.Taken).To(BeTrue()) // base table starts weakly-taken
	})

	It("eventually predicts correctly for a strongly biased always-taken branch", func() {
		pc := uint32(0x2000)
		for i := 0; i < 30; i++ {
			g.Predict(pc)
			g.Update(pc, true, pc+4)
		}
		Expect(g.Predict(pc).Taken).To(BeTrue())
	})

	It("eventually predicts correctly for a strongly biased always-not-taken branch", func() {
		pc := uint32(0x2100)
		for i := 0; i < 30; i++ {
			g.Predict(pc)
			g.Update(pc, false, 0)
		}
		Expect(g.Predict(pc).Taken).To(BeFalse())
	})

	It("accumulates prediction statistics", func() {
		pc := uint32(0x3000)
		g.Predict(pc)
		g.Update(pc, true, pc+4)
		stats := g.Stats()
		Expect(stats.Predictions).To(Equal(uint64(1)))
		Expect(stats.Correct + stats.Mispredictions).To(Equal(uint64(1)))
	})

	It("resets all tables, history, and stats", func() {
		pc := uint32(0x4000)
		for i := 0; i < 10; i++ {
			g.Predict(pc)
			g.Update(pc, true, pc+4)
		}
		g.Reset()
		Expect(g.Stats()).To(Equal(predictor.Stats{}))
	})
})
