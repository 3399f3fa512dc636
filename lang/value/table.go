package value

// Table is a single open-addressing hash table with linear probing and
// tombstones, serving every tabular need in the system: the interned
// string set, the globals table, each class's method table, and each
// instance's fields table. Keys are always interned strings, so key
// equality is pointer identity; that is also why the table lives in the
// value package rather than a separate one — ObjClass and ObjInstance
// embed one directly, and splitting it out would create an import cycle
// between "the type that needs a table" and "the table of that type".
type Table struct {
	count   int // active entries plus tombstones
	entries []entry
}

type entry struct {
	key   *ObjString // nil key means empty slot (value nil) or a tombstone (value true)
	value Value
	// a tombstone is represented as key == nil, value == Bool(true); see Delete.
}

const tableMaxLoad = 0.75
const tableMinCapacity = 8

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Len reports the number of live (non-tombstone) entries.
func (t *Table) Len() int { return t.count - t.tombstones() }

func (t *Table) tombstones() int {
	n := 0
	for _, e := range t.entries {
		if e.key == nil && e.value.IsBool() && e.value.AsBool() {
			n++
		}
	}
	return n
}

// Get looks up key, returning its value and true if present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value. It returns true if key was not
// already present (a new key was added).
func (t *Table) Set(key *ObjString, v Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := e.key == nil
	if isNew && e.value.IsNil() {
		// not reusing a tombstone: count grows
		t.count++
	}
	e.key = key
	e.value = v
	return isNew
}

// Delete replaces key's entry with a tombstone (key=nil, value=true), which
// continues to count toward the load factor so probe chains stay correct.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true)
	return true
}

// AddAll copies every entry of t into dst, used by OP_INHERIT to copy a
// superclass's methods down into a subclass.
func (t *Table) AddAll(dst *Table) {
	for _, e := range t.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString probes the table by content (hash then byte comparison)
// instead of by an existing *ObjString pointer, the operation the intern
// table needs to decide whether a freshly scanned/concatenated string
// sequence already has an interned representative.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			// stop at an empty (non-tombstone) slot; tombstones have value==true
			if !(e.value.IsBool() && e.value.AsBool()) {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// RemoveWhite deletes every entry whose key is not marked, implementing the
// intern table's weak references: the collector calls this before sweep so
// strings that are about to be freed no longer appear to be interned.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.IsMarked {
			e.key = nil
			e.value = Bool(true)
		}
	}
}

// Mark visits every live key and value in the table, calling mark on each.
// Used by the collector to treat a table (globals, or a class/instance's
// own table) as a set of GC roots/edges.
func (t *Table) Mark(mark func(Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			mark(FromObj(e.key))
			mark(e.value)
		}
	}
}

func (t *Table) find(key *ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// truly empty: return the tombstone slot if we passed one, else this one
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// tombstone
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := tableMinCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.find(e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}
