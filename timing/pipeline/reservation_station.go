package pipeline

import "github.com/smidthebest/ooriscv/insts"

// RSEntry is one reservation station slot.
type RSEntry struct {
	Valid     bool
	Running   bool
	ROBIndex  int
	RS1Index  int // producing RS index, or -1 if RS1Data is already valid
	RS2Index  int // producing RS index, or -1 if RS2Data is already valid
	RS1Data   uint32
	RS2Data   uint32
	BarrierID uint32
	Instr     *insts.Instruction
}

// OperandsReady reports whether both source operands have resolved.
func (e *RSEntry) OperandsReady() bool {
	return e.RS1Index == -1 && e.RS2Index == -1
}

// UpdateOperands snapshots a CDB broadcast into any operand of e that
// is waiting on the producing RS index.
func (e *RSEntry) UpdateOperands(data CDBData) {
	if e.RS1Index == data.RSIndex {
		e.RS1Data = data.Result
		e.RS1Index = -1
	}
	if e.RS2Index == data.RSIndex {
		e.RS2Data = data.Result
		e.RS2Index = -1
	}
}

// ticketBarrier enforces issue-order dispatch for LSU instructions:
// Tick hands out sequential tickets at issue time, Tock
// advances the barrier at RS-release time (after the instruction has
// written back), and Ready reports whether a given ticket is now at
// the front of the barrier.
type ticketBarrier struct {
	tick uint32
	tock uint32
}

func (b *ticketBarrier) Tick() uint32 {
	id := b.tick
	b.tick++
	return id
}

func (b *ticketBarrier) Tock() {
	b.tock++
}

func (b *ticketBarrier) Ready(id uint32) bool {
	return id == b.tock
}

func (b *ticketBarrier) Reset() {
	b.tick = 0
	b.tock = 0
}

// ReservationStation is a free-list pool of RS entries. Issue hands
// out the next free index; Release returns it to the pool.
type ReservationStation struct {
	store       []RSEntry
	indices     []uint32
	nextIndex   uint32
	lsuBarrier  ticketBarrier
}

// NewReservationStation creates a ReservationStation with size slots.
func NewReservationStation(size uint32) *ReservationStation {
	rs := &ReservationStation{
		store:   make([]RSEntry, size),
		indices: make([]uint32, size),
	}
	for i := range rs.indices {
		rs.indices[i] = uint32(i)
	}
	return rs
}

// Full reports whether every slot is in use.
func (r *ReservationStation) Full() bool {
	return r.nextIndex == uint32(len(r.store))
}

// Empty reports whether no slot is in use.
func (r *ReservationStation) Empty() bool {
	return r.nextIndex == 0
}

// Size returns the number of slots.
func (r *ReservationStation) Size() uint32 {
	return uint32(len(r.store))
}

// GetEntry returns a copy of the entry at index.
func (r *ReservationStation) GetEntry(index uint32) RSEntry {
	return r.store[index]
}

// UpdateEntry replaces the entry at index.
func (r *ReservationStation) UpdateEntry(index uint32, entry RSEntry) {
	r.store[index] = entry
}

// Issue allocates a free slot for instr, assigning it an LSU ticket if
// instr dispatches to the LSU. Panics if Full.
func (r *ReservationStation) Issue(robIndex, rs1Index, rs2Index int, rs1Data, rs2Data uint32, instr *insts.Instruction) uint32 {
	if r.Full() {
		panic("pipeline: issue into full reservation station")
	}
	index := r.indices[r.nextIndex]
	r.nextIndex++

	var barrierID uint32
	if instr.FU == insts.FULSU {
		barrierID = r.lsuBarrier.Tick()
	}

	r.store[index] = RSEntry{
		Valid:     true,
		ROBIndex:  robIndex,
		RS1Index:  rs1Index,
		RS2Index:  rs2Index,
		RS1Data:   rs1Data,
		RS2Data:   rs2Data,
		BarrierID: barrierID,
		Instr:     instr,
	}
	return index
}

// Release frees the slot at index, advancing the LSU ticket barrier if
// it held an LSU instruction. Panics if Empty.
func (r *ReservationStation) Release(index uint32) {
	if r.Empty() {
		panic("pipeline: release from empty reservation station")
	}
	entry := &r.store[index]
	entry.Valid = false
	entry.Running = false
	if entry.Instr.FU == insts.FULSU {
		r.lsuBarrier.Tock()
	}
	r.nextIndex--
	r.indices[r.nextIndex] = index
}

// Locked reports whether the LSU instruction at index must wait for
// older LSU instructions to complete before it may be dispatched.
func (r *ReservationStation) Locked(index uint32) bool {
	entry := &r.store[index]
	if !entry.Valid || entry.Instr.FU != insts.FULSU {
		return false
	}
	return !r.lsuBarrier.Ready(entry.BarrierID)
}

// Reset clears all entries and the LSU ticket barrier.
func (r *ReservationStation) Reset() {
	for i := range r.store {
		r.store[i] = RSEntry{}
		r.indices[i] = uint32(i)
	}
	r.nextIndex = 0
	r.lsuBarrier.Reset()
}
