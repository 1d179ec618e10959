package engine

// region selects which slice of a table a source enumeration reads.
//
// The semi-naive join visits every combination containing at least one
// previous-pass tuple exactly once: for pivot source i, sources before i
// read old rows only, source i reads the delta, and sources after i read
// both. Purely-old combinations were handled by an earlier pass.
type region int

const (
	regionOld region = iota
	regionDelta
	regionAll
)

// table is the evaluation-time tuple store for one relation.
//
// Rows move through three stages per pass: added (found this pass),
// delta (found last pass), stable (everything older). Lookups split the
// same way: known covers stable+delta and is the snapshot every read in
// the current pass consults; pending covers added and exists only for
// deduplication. New rows never become visible mid-pass.
type table struct {
	relation string

	stable []*Derived
	delta  []*Derived
	added  []*Derived

	known   map[string]*Derived
	pending map[string]*Derived
}

func newTable(relation string) *table {
	return &table{
		relation: relation,
		known:    make(map[string]*Derived),
		pending:  make(map[string]*Derived),
	}
}

// loadBase installs an input tuple directly into the stable stage.
// Duplicate keys collapse onto the first row.
func (t *table) loadBase(f *Derived) {
	if t.known[f.Key] != nil {
		return
	}
	t.known[f.Key] = f
	t.stable = append(t.stable, f)
}

// lookup returns the row for a key regardless of stage, or nil.
func (t *table) lookup(key string) *Derived {
	if f := t.known[key]; f != nil {
		return f
	}
	return t.pending[key]
}

// contains reports whether the pass-start snapshot holds the key.
// Negation checks use this, never lookup: a tuple derived mid-pass must
// not flip a negation within the same pass.
func (t *table) contains(key string) bool {
	return t.known[key] != nil
}

// insert stages a newly derived row for the next pass.
// The caller has already checked lookup for duplicates.
func (t *table) insert(f *Derived) {
	t.pending[f.Key] = f
	t.added = append(t.added, f)
}

// promote closes the current pass: last pass's delta is folded into
// stable, this pass's additions become the next delta, and the snapshot
// absorbs them. Returns the number of rows promoted into the new delta.
func (t *table) promote() int {
	t.stable = append(t.stable, t.delta...)
	t.delta = t.added
	t.added = nil
	for k, f := range t.pending {
		t.known[k] = f
	}
	t.pending = make(map[string]*Derived)
	return len(t.delta)
}

// rowsIn returns the rows a region covers, in insertion order.
func (t *table) rowsIn(r region) []*Derived {
	switch r {
	case regionOld:
		return t.stable
	case regionDelta:
		return t.delta
	case regionAll:
		if len(t.delta) == 0 {
			return t.stable
		}
		all := make([]*Derived, 0, len(t.stable)+len(t.delta))
		all = append(all, t.stable...)
		all = append(all, t.delta...)
		return all
	default:
		panic("engine: unknown region")
	}
}

// rows returns every row in discovery order. Only valid after the
// table's component has finished (delta and added drained into stable).
func (t *table) rows() []*Derived {
	return t.stable
}
