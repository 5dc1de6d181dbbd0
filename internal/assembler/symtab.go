// Completion: 100% - Symbol table complete
package assembler

import "sort"

// Entry is one symbol-table entry (spec.md sec.3). Value holds either a
// plain numeric constant, a packed (section<<32 | offset) pending address
// (user-mode Pass 1), or a final absolute address (after relocation, or
// always in kernel mode). IsDefined distinguishes a name that has been
// merely declared (".global" forward reference) from one with a known
// value. IsData marks labels living in .rodata/.data/.bss, used only by
// the debug trailer to tell "#label" from "#data".
type Entry struct {
	Value     uint64
	IsDefined bool
	IsData    bool
}

type symBucket struct {
	key      string
	entry    Entry
	occupied bool
	next     *symBucket
}

// SymbolTable is a chaining hash map from borrowed byte content (a Slice)
// to Entry, mirroring the teacher's Vibe67HashMap chaining design
// (hashmap.go) but keyed on byte content per the data model's Slice
// contract ("two slices compare byte-equal; hashing is over the byte
// content") rather than on a numeric id.
type SymbolTable struct {
	buckets []symBucket
	size    int
	count   int
}

// NewSymbolTable creates an empty table with a small initial bucket count.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{buckets: make([]symBucket, 16), size: 16}
}

func (t *SymbolTable) indexFor(name string) uint64 {
	return NewSlice(name).hashKey() % uint64(t.size)
}

// Get looks up name, returning its entry and whether it was present at all
// (regardless of IsDefined).
func (t *SymbolTable) Get(name string) (Entry, bool) {
	idx := t.indexFor(name)
	b := &t.buckets[idx]
	if b.occupied && b.key == name {
		return b.entry, true
	}
	for cur := b.next; cur != nil; cur = cur.next {
		if cur.key == name {
			return cur.entry, true
		}
	}
	return Entry{}, false
}

// Contains reports whether name has any entry, defined or merely declared.
func (t *SymbolTable) Contains(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// HasDefinition reports whether name is present and defined.
func (t *SymbolTable) HasDefinition(name string) bool {
	e, ok := t.Get(name)
	return ok && e.IsDefined
}

// Insert adds a new entry for name. The caller is responsible for rejecting
// duplicate *defined* insertions before calling Insert; Insert itself always
// overwrites (used for promoting a declared-but-undefined entry, and for
// the initial insertion of a brand-new name).
func (t *SymbolTable) Insert(name string, value uint64, isDefined, isData bool) {
	idx := t.indexFor(name)
	b := &t.buckets[idx]

	if !b.occupied {
		b.key = name
		b.entry = Entry{Value: value, IsDefined: isDefined, IsData: isData}
		b.occupied = true
		t.count++
		t.maybeResize()
		return
	}
	if b.key == name {
		b.entry = Entry{Value: value, IsDefined: isDefined, IsData: isData}
		return
	}
	for cur := b.next; cur != nil; cur = cur.next {
		if cur.key == name {
			cur.entry = Entry{Value: value, IsDefined: isDefined, IsData: isData}
			return
		}
	}
	b.next = &symBucket{key: name, entry: Entry{Value: value, IsDefined: isDefined, IsData: isData}, occupied: true, next: b.next}
	t.count++
	t.maybeResize()
}

// MakeDefined promotes an existing declared-but-undefined entry to defined
// with the given value, preserving IsData. Returns false if name is not
// present at all.
func (t *SymbolTable) MakeDefined(name string, value uint64) bool {
	e, ok := t.Get(name)
	if !ok {
		return false
	}
	e.Value = value
	e.IsDefined = true
	t.Insert(name, e.Value, e.IsDefined, e.IsData)
	return true
}

// Update overwrites the value of an existing defined entry (used by the
// Pass-1-to-absolute-address relocation step), preserving IsDefined/IsData.
func (t *SymbolTable) Update(name string, value uint64) {
	e, _ := t.Get(name)
	t.Insert(name, value, e.IsDefined, e.IsData)
}

func (t *SymbolTable) maybeResize() {
	if float64(t.count)/float64(t.size) <= 0.75 {
		return
	}
	old := t.buckets
	t.size *= 2
	t.buckets = make([]symBucket, t.size)
	t.count = 0
	for i := range old {
		for cur := &old[i]; cur != nil; cur = cur.next {
			if cur.occupied {
				t.Insert(cur.key, cur.entry.Value, cur.entry.IsDefined, cur.entry.IsData)
			}
		}
	}
}

// Names returns every stored name in sorted order, used by the debug
// trailer (spec.md sec.4.G) so its output is deterministic regardless of
// hash-bucket layout.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, t.count)
	for i := range t.buckets {
		for cur := &t.buckets[i]; cur != nil; cur = cur.next {
			if cur.occupied {
				names = append(names, cur.key)
			}
		}
	}
	sort.Strings(names)
	return names
}

// FileSymbols bundles the three per-file symbol spaces (spec.md sec.3):
// local labels, local numeric defines, and the set of names this file
// declared ".global" (used only for duplicate-.global detection within the
// file, distinct from the shared GlobalLabels table).
type FileSymbols struct {
	Labels  *SymbolTable
	Defines *SymbolTable
	Globals *SymbolTable
}

// NewFileSymbols creates the three empty per-file tables for one input
// file.
func NewFileSymbols() *FileSymbols {
	return &FileSymbols{
		Labels:  NewSymbolTable(),
		Defines: NewSymbolTable(),
		Globals: NewSymbolTable(),
	}
}

// Resolve implements the operand-resolution precedence from spec.md
// sec.4.B: local defines shadow local labels, which shadow global labels.
// fromDefine reports whether the match came from file.Defines, which callers
// need to tell a plain constant (no relocation) apart from a label/global
// address (PC-relative correction, or the movu/movl pair bias). ok is false
// only when the name is not defined anywhere yet (Pass 2: caller must raise
// SymbolError; Pass 1: caller defers with a zero sentinel).
func Resolve(file *FileSymbols, global *SymbolTable, name string) (entry Entry, fromDefine, ok bool) {
	if e, ok := file.Defines.Get(name); ok {
		return e, true, true
	}
	if e, ok := file.Labels.Get(name); ok && e.IsDefined {
		return e, false, true
	}
	if e, ok := global.Get(name); ok && e.IsDefined {
		return e, false, true
	}
	return Entry{}, false, false
}
