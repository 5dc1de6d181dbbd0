// Completion: 100% - Debug trailer bookkeeping complete
package assembler

// LineEntry is one ".line path lineno" record (spec.md sec.4.F).
type LineEntry struct {
	Path string
	Line int64
	Addr uint32
}

// LocalEntry is one ".local name bp_offset size" record (spec.md sec.4.F).
type LocalEntry struct {
	Name     string
	BPOffset int64
	Size     int64
	Addr     uint32
}

// DebugLog accumulates the two Pass-2-only debug streams in encounter
// order across every file (spec.md sec.4.G: "#line ... then #local ...
// lines from the debug log"). Label/data entries are not recorded here;
// they come straight from the symbol tables once layout is final.
type DebugLog struct {
	Lines  []LineEntry
	Locals []LocalEntry
}

func NewDebugLog() *DebugLog { return &DebugLog{} }

func (d *DebugLog) AddLine(path string, line int64, addr uint32) {
	d.Lines = append(d.Lines, LineEntry{Path: path, Line: line, Addr: addr})
}

func (d *DebugLog) AddLocal(name string, bpOffset, size int64, addr uint32) {
	d.Locals = append(d.Locals, LocalEntry{Name: name, BPOffset: bpOffset, Size: size, Addr: addr})
}

// LabelEntry is one resolved, nameable address: either a code label or a
// data label, distinguished for the "#label" vs "#data" trailer lines.
type LabelEntry struct {
	Name   string
	Addr   uint32
	IsData bool
}

// CollectLabels gathers every defined label across every file plus the
// shared global table, deduplicated by name and sorted (spec.md sec.4.G:
// "#label <name> <addr> and #data <name> <addr> lines from the label
// list"). Global entries are visited last so a name promoted to global
// still reports the one definition's address consistently.
func CollectLabels(global *SymbolTable, files []*FileSymbols) []LabelEntry {
	seen := map[string]LabelEntry{}
	add := func(t *SymbolTable) {
		for _, name := range t.Names() {
			e, _ := t.Get(name)
			if !e.IsDefined {
				continue
			}
			seen[name] = LabelEntry{Name: name, Addr: uint32(e.Value), IsData: e.IsData}
		}
	}
	for _, f := range files {
		add(f.Labels)
	}
	add(global)

	out := make([]LabelEntry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sortLabelEntries(out)
	return out
}

func sortLabelEntries(entries []LabelEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].Name > entries[j].Name; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}
