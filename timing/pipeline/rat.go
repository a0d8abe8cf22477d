package pipeline

// RegisterAliasTable maps an architectural register to the ROB index
// that will produce its next value, when that value hasn't yet been
// committed to the register file. x0 is never mapped: it is hardwired
// to zero and never renamed.
type RegisterAliasTable struct {
	valid [32]bool
	rob   [32]int
}

// NewRegisterAliasTable creates an empty RegisterAliasTable.
func NewRegisterAliasTable() *RegisterAliasTable {
	return &RegisterAliasTable{}
}

// Lookup returns the ROB index aliasing reg and whether it is valid.
// Always returns (0, false) for x0.
func (t *RegisterAliasTable) Lookup(reg uint8) (int, bool) {
	if reg == 0 {
		return 0, false
	}
	return t.rob[reg], t.valid[reg]
}

// Set aliases reg to robIndex. A no-op for x0.
func (t *RegisterAliasTable) Set(reg uint8, robIndex int) {
	if reg == 0 {
		return
	}
	t.valid[reg] = true
	t.rob[reg] = robIndex
}

// ClearIfMatches removes the alias for reg only if it still points at
// robIndex, so a later in-flight write to the same register isn't
// clobbered by an earlier one committing.
func (t *RegisterAliasTable) ClearIfMatches(reg uint8, robIndex int) {
	if reg == 0 {
		return
	}
	if t.valid[reg] && t.rob[reg] == robIndex {
		t.valid[reg] = false
	}
}

// Reset clears all aliases.
func (t *RegisterAliasTable) Reset() {
	for i := range t.valid {
		t.valid[i] = false
	}
}
