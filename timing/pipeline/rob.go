package pipeline

import "github.com/smidthebest/ooriscv/insts"

// ROBEntry is one reorder buffer slot.
type ROBEntry struct {
	Valid  bool
	Ready  bool
	Result uint32
	Instr  *insts.Instruction
}

// ReorderBuffer is the circular in-order commit buffer that holds one
// entry per instruction in flight, from issue until commit.
type ReorderBuffer struct {
	store     []ROBEntry
	headIndex int
	tailIndex int
	count     uint32
}

// NewReorderBuffer creates a ReorderBuffer with the given number of
// entries.
func NewReorderBuffer(size uint32) *ReorderBuffer {
	return &ReorderBuffer{store: make([]ROBEntry, size)}
}

// Full reports whether every entry is occupied.
func (r *ReorderBuffer) Full() bool {
	return r.count == uint32(len(r.store))
}

// Empty reports whether no entry is occupied.
func (r *ReorderBuffer) Empty() bool {
	return r.count == 0
}

// Allocate reserves the tail entry for instr and returns its index.
// Panics if Full.
func (r *ReorderBuffer) Allocate(instr *insts.Instruction) int {
	if r.Full() {
		panic("pipeline: allocate into full ROB")
	}
	index := r.tailIndex
	r.store[index] = ROBEntry{Valid: true, Instr: instr}
	r.tailIndex = (r.tailIndex + 1) % len(r.store)
	r.count++
	return index
}

// Update marks the entry named by data.ROBIndex ready with its result.
func (r *ReorderBuffer) Update(data CDBData) {
	entry := &r.store[data.ROBIndex]
	if !entry.Valid {
		panic("pipeline: CDB update targets invalid ROB entry")
	}
	if entry.Ready {
		panic("pipeline: CDB update targets already-ready ROB entry")
	}
	entry.Result = data.Result
	entry.Ready = true
}

// HeadIndex returns the index of the oldest (commit-candidate) entry.
func (r *ReorderBuffer) HeadIndex() int {
	return r.headIndex
}

// GetEntry returns the entry at index.
func (r *ReorderBuffer) GetEntry(index int) ROBEntry {
	return r.store[index]
}

// Pop retires the head entry. Panics if Empty or the head isn't ready.
func (r *ReorderBuffer) Pop() int {
	if r.Empty() {
		panic("pipeline: pop from empty ROB")
	}
	head := &r.store[r.headIndex]
	if !head.Valid || !head.Ready {
		panic("pipeline: pop of unready ROB head")
	}
	head.Valid = false
	head.Ready = false
	r.headIndex = (r.headIndex + 1) % len(r.store)
	r.count--
	return r.headIndex
}

// Size returns the number of entries in the buffer.
func (r *ReorderBuffer) Size() uint32 {
	return uint32(len(r.store))
}
