package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smidthebest/ooriscv/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory(64)
	})

	It("round-trips a byte", func() {
		m.Write8(4, 0xab)
		Expect(m.Read8(4)).To(Equal(uint8(0xab)))
	})

	It("round-trips a little-endian halfword", func() {
		m.Write16(8, 0xbeef)
		Expect(m.Read8(8)).To(Equal(uint8(0xef)))
		Expect(m.Read8(9)).To(Equal(uint8(0xbe)))
		Expect(m.Read16(8)).To(Equal(uint16(0xbeef)))
	})

	It("round-trips a little-endian word", func() {
		m.Write32(16, 0xdeadbeef)
		Expect(m.Read32(16)).To(Equal(uint32(0xdeadbeef)))
	})

	It("dispatches ReadBytes/WriteBytes by width", func() {
		m.WriteBytes(0, 1, 0xff)
		Expect(m.ReadBytes(0, 1)).To(Equal(uint32(0xff)))
		m.WriteBytes(0, 2, 0x1234)
		Expect(m.ReadBytes(0, 2)).To(Equal(uint32(0x1234)))
		m.WriteBytes(0, 4, 0x89abcdef)
		Expect(m.ReadBytes(0, 4)).To(Equal(uint32(0x89abcdef)))
	})

	It("panics on an out-of-range access", func() {
		Expect(func() { m.Read32(62) }).To(Panic())
	})

	It("defaults to DefaultMemorySize when constructed with 0", func() {
		def := emu.NewMemory(0)
		Expect(def.Size()).To(Equal(uint32(emu.DefaultMemorySize)))
	})

	It("loads a byte slice at an offset", func() {
		m.LoadBytes(10, []byte{1, 2, 3})
		Expect(m.Read8(10)).To(Equal(uint8(1)))
		Expect(m.Read8(11)).To(Equal(uint8(2)))
		Expect(m.Read8(12)).To(Equal(uint8(3)))
	})
})
