package pipeline

// RegisterStatusTable maps a ROB index to the reservation station
// entry producing its result, so issue can find which RS to wait on
// for an operand whose RAT lookup landed in the ROB but whose ROB
// entry isn't ready yet.
type RegisterStatusTable struct {
	valid [](bool)
	rs    []int
}

// NewRegisterStatusTable creates a RegisterStatusTable sized for
// robSize ROB entries.
func NewRegisterStatusTable(robSize uint32) *RegisterStatusTable {
	return &RegisterStatusTable{
		valid: make([]bool, robSize),
		rs:    make([]int, robSize),
	}
}

// Lookup returns the RS index producing robIndex's result and whether
// one is currently recorded.
func (t *RegisterStatusTable) Lookup(robIndex int) (int, bool) {
	return t.rs[robIndex], t.valid[robIndex]
}

// Set records that rsIndex will produce robIndex's result.
func (t *RegisterStatusTable) Set(robIndex int, rsIndex int) {
	t.valid[robIndex] = true
	t.rs[robIndex] = rsIndex
}

// Clear removes the mapping for robIndex once it is no longer needed.
func (t *RegisterStatusTable) Clear(robIndex int) {
	t.valid[robIndex] = false
}

// Reset clears every mapping.
func (t *RegisterStatusTable) Reset() {
	for i := range t.valid {
		t.valid[i] = false
	}
}
