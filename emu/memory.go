package emu

import "fmt"

// DefaultMemorySize is the backing size used when a program doesn't
// otherwise specify one.
const DefaultMemorySize = 1 << 20 // 1 MiB

// Memory is a flat, byte-addressed, little-endian RAM. The core's MMU
// is explicitly out of scope; this is the reference backing store that
// makes the simulator runnable end to end, grounded on the Read32/
// Write32/Read64/Write64 call pattern observed at the teacher's LSU
// call sites.
type Memory struct {
	data []byte
}

// NewMemory allocates a zeroed RAM of the given size in bytes. A size
// of 0 selects DefaultMemorySize.
func NewMemory(size uint32) *Memory {
	if size == 0 {
		size = DefaultMemorySize
	}
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) bounds(addr uint32, width uint32) {
	if uint64(addr)+uint64(width) > uint64(len(m.data)) {
		panic(fmt.Sprintf("emu: memory access out of range: addr=0x%x width=%d size=%d", addr, width, len(m.data)))
	}
}

// Read8 reads a single byte at addr.
func (m *Memory) Read8(addr uint32) uint8 {
	m.bounds(addr, 1)
	return m.data[addr]
}

// Write8 writes a single byte at addr.
func (m *Memory) Write8(addr uint32, v uint8) {
	m.bounds(addr, 1)
	m.data[addr] = v
}

// Read16 reads a little-endian halfword at addr.
func (m *Memory) Read16(addr uint32) uint16 {
	m.bounds(addr, 2)
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8
}

// Write16 writes a little-endian halfword at addr.
func (m *Memory) Write16(addr uint32, v uint16) {
	m.bounds(addr, 2)
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
}

// Read32 reads a little-endian word at addr.
func (m *Memory) Read32(addr uint32) uint32 {
	m.bounds(addr, 4)
	return uint32(m.data[addr]) |
		uint32(m.data[addr+1])<<8 |
		uint32(m.data[addr+2])<<16 |
		uint32(m.data[addr+3])<<24
}

// Write32 writes a little-endian word at addr.
func (m *Memory) Write32(addr uint32, v uint32) {
	m.bounds(addr, 4)
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
	m.data[addr+2] = byte(v >> 16)
	m.data[addr+3] = byte(v >> 24)
}

// ReadBytes reads width bytes (1, 2, or 4) at addr, zero-extended into
// a uint32. Used by the LSU for the func3-driven load-size dispatch.
func (m *Memory) ReadBytes(addr uint32, width int) uint32 {
	switch width {
	case 1:
		return uint32(m.Read8(addr))
	case 2:
		return uint32(m.Read16(addr))
	case 4:
		return m.Read32(addr)
	default:
		panic(fmt.Sprintf("emu: unsupported memory access width: %d", width))
	}
}

// WriteBytes writes the low width bytes (1, 2, or 4) of v at addr.
func (m *Memory) WriteBytes(addr uint32, width int, v uint32) {
	switch width {
	case 1:
		m.Write8(addr, uint8(v))
	case 2:
		m.Write16(addr, uint16(v))
	case 4:
		m.Write32(addr, v)
	default:
		panic(fmt.Sprintf("emu: unsupported memory access width: %d", width))
	}
}

// Size returns the capacity of the backing store in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// LoadBytes copies src into memory starting at addr, growing the
// backing store's used window is not supported: addr+len(src) must
// fit within the configured size.
func (m *Memory) LoadBytes(addr uint32, src []byte) {
	m.bounds(addr, uint32(len(src)))
	copy(m.data[addr:], src)
}
