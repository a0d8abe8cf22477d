package predictor

// TageConfig configures a GSharePlus (TAGE-style) predictor. TableSize
// is authoritative over the number of tagged tables: each tagged
// table is sized TableSize regardless of how many history lengths are
// configured, per this simulator's own resolution of the distilled
// spec's NUM_TBLS/TBL_SIZE ambiguity.
type TageConfig struct {
	BaseSize    uint32
	TableSize   uint32
	HistLengths []uint32
}

// DefaultTageConfig returns a 3-tagged-table configuration with
// geometrically increasing history lengths.
func DefaultTageConfig() TageConfig {
	return TageConfig{
		BaseSize:    4096,
		TableSize:   1024,
		HistLengths: []uint32{4, 8, 16},
	}
}

const tageGoldenRatio = 0x9e3779b9

type tageEntry struct {
	valid   bool
	tag     uint8
	counter int8 // 3-bit signed, range [-4, 3]
	useful  uint8
}

// GSharePlus is a simplified TAGE-style predictor: a base bimodal
// table consulted when no tagged table matches, plus a bank of tagged
// tables keyed by increasingly long history lengths. The longest
// matching tagged table provides the prediction.
type GSharePlus struct {
	base     []uint8
	baseMask uint32

	tables     [][]tageEntry
	tableMask  uint32
	histLens   []uint32
	maxHistLen uint32
	ghr        uint64

	// lastProvider/lastProviderIdx remember, per predict call, which table (or
	// -1 for the base table) supplied the most recent prediction, so
	// Update can train the right entry without redoing the lookup.
	lastProvider    int
	lastProviderIdx uint32
	lastPC          uint32

	stats Stats
}

// NewGSharePlus constructs a GSharePlus predictor from cfg, filling in
// zero-valued fields from DefaultTageConfig.
func NewGSharePlus(cfg TageConfig) *GSharePlus {
	def := DefaultTageConfig()
	if cfg.BaseSize == 0 {
		cfg.BaseSize = def.BaseSize
	}
	if cfg.TableSize == 0 {
		cfg.TableSize = def.TableSize
	}
	if len(cfg.HistLengths) == 0 {
		cfg.HistLengths = def.HistLengths
	}

	g := &GSharePlus{
		base:      make([]uint8, cfg.BaseSize),
		baseMask:  cfg.BaseSize - 1,
		tableMask: cfg.TableSize - 1,
		histLens:  append([]uint32(nil), cfg.HistLengths...),
	}
	for i := range g.base {
		g.base[i] = 2
	}
	g.tables = make([][]tageEntry, len(g.histLens))
	for i := range g.tables {
		g.tables[i] = make([]tageEntry, cfg.TableSize)
		if g.histLens[i] > g.maxHistLen {
			g.maxHistLen = g.histLens[i]
		}
	}
	return g
}

func (g *GSharePlus) history(length uint32) uint32 {
	mask := uint64(1)<<length - 1
	return uint32(g.ghr & mask)
}

func (g *GSharePlus) tableIndex(pc uint32, tableIdx int) uint32 {
	length := g.histLens[tableIdx]
	h := g.history(length)
	key := pc ^ h ^ (length * tageGoldenRatio)
	return key & g.tableMask
}

func (g *GSharePlus) tableTag(pc uint32, tableIdx int) uint8 {
	length := g.histLens[tableIdx]
	h := uint32(g.ghr >> length)
	return uint8(pc ^ h)
}

// Predict returns the direction prediction for a branch at pc, from
// the longest-history tagged table with a matching tag, falling back
// to the base bimodal table.
func (g *GSharePlus) Predict(pc uint32) Prediction {
	g.lastPC = pc
	g.lastProvider = -1

	for i := len(g.tables) - 1; i >= 0; i-- {
		idx := g.tableIndex(pc, i)
		tag := g.tableTag(pc, i)
		e := g.tables[i][idx]
		if e.valid && e.tag == tag {
			g.lastProvider = i
			g.lastProviderIdx = idx
			g.stats.Predictions++
			return Prediction{Taken: e.counter >= 0}
		}
	}

	idx := pc & g.baseMask
	g.stats.Predictions++
	return Prediction{Taken: g.base[idx] >= 2}
}

// Update trains the predictor with the resolved outcome of the branch
// most recently passed to Predict, and shifts it into the global
// history register.
func (g *GSharePlus) Update(pc uint32, taken bool, target uint32) {
	_ = target

	predicted := g.predictedDirection()
	if predicted == taken {
		g.stats.Correct++
	} else {
		g.stats.Mispredictions++
	}

	if g.lastProvider >= 0 {
		e := &g.tables[g.lastProvider][g.lastProviderIdx]
		updateTageCounter(e, taken)
		if predicted == taken && e.useful < 3 {
			e.useful++
		}
	} else {
		idx := pc & g.baseMask
		if taken {
			if g.base[idx] < 3 {
				g.base[idx]++
			}
		} else if g.base[idx] > 0 {
			g.base[idx]--
		}
	}

	if predicted != taken {
		g.allocateEntry(pc, taken)
	}

	g.ghr = (g.ghr << 1) | uint64(boolToBit(taken))
	if g.maxHistLen < 63 {
		g.ghr &= (uint64(1) << (g.maxHistLen + 1)) - 1
	}
}

func (g *GSharePlus) predictedDirection() bool {
	if g.lastProvider >= 0 {
		return g.tables[g.lastProvider][g.lastProviderIdx].counter >= 0
	}
	idx := g.lastPC & g.baseMask
	return g.base[idx] >= 2
}

func updateTageCounter(e *tageEntry, taken bool) {
	if taken {
		if e.counter < 3 {
			e.counter++
		}
	} else if e.counter > -4 {
		e.counter--
	}
}

// allocateEntry installs a fresh entry in a longer-history table than
// the one that (mis)provided the prediction, preferring a table whose
// slot is not marked useful, and decaying useful counters along the
// way: the textbook TAGE allocate-on-misprediction policy.
func (g *GSharePlus) allocateEntry(pc uint32, taken bool) {
	start := g.lastProvider + 1
	for i := start; i < len(g.tables); i++ {
		idx := g.tableIndex(pc, i)
		e := &g.tables[i][idx]
		if e.useful == 0 {
			e.valid = true
			e.tag = g.tableTag(pc, i)
			if taken {
				e.counter = 0
			} else {
				e.counter = -1
			}
			e.useful = 0
			return
		}
		if e.useful > 0 {
			e.useful--
		}
	}
}

// Stats returns the accumulated predictor statistics.
func (g *GSharePlus) Stats() Stats {
	return g.stats
}

// Reset clears all predictor state and statistics.
func (g *GSharePlus) Reset() {
	for i := range g.base {
		g.base[i] = 2
	}
	for _, t := range g.tables {
		for i := range t {
			t[i] = tageEntry{}
		}
	}
	g.ghr = 0
	g.lastProvider = -1
	g.stats = Stats{}
}
