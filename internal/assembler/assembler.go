// Completion: 100% - Top-level orchestration complete
package assembler

import "fmt"

// Config holds the knobs exposed by the cmd/dioptase host (spec.md sec.6):
// whether this is a kernel-mode assembly (no sections, raw origin-addressed
// output) or user mode (ELF image with the four standard sections), whether
// debug bookkeeping (.line/.local) should be emitted into the trailer,
// whether the host asks for the entry-point thunk to be prepended to the
// first file (user mode only, and only when _start is declared), and the
// color policy for diagnostics.
type Config struct {
	IsKernel   bool
	Debug      bool
	UseColor   bool
	EntryThunk bool
}

// SourceFile is one host-supplied input: its display path and raw text, in
// the order they should be preprocessed and assembled (spec.md sec.5).
type SourceFile struct {
	Path string
	Text []byte
}

// Assembler is the shared state threaded through every stage of one
// assembly run: the program-wide symbol table, section bookkeeping, the
// output word buffers, and the debug log. It plays the role the reference
// implementation gives its process-global state (spec.md sec.9, "global
// state promoted to an explicit context parameter"), but as a single struct
// passed by pointer rather than package-level variables.
type Assembler struct {
	Config Config
	Diag   *Diagnostics

	Global   *SymbolTable
	Sections SectionSet
	Output   *InstrArray
	Debug    *DebugLog

	sectionNodes [4]*InstrNode

	// Traversal position, persistent across file boundaries within a single
	// pass: spec.md sec.4.F says a file's section carries over into the
	// next file, and kernel mode's pc is one continuous address space
	// spanning every input file. resetTraversal reinitializes these at the
	// start of Pass 1 and again at the start of Pass 2.
	travSection     Section
	travHaveSection bool
	travPC          uint32
	travNode        *InstrNode
}

// NewAssembler creates an assembler ready to run Preprocess/RunPass1/
// RunPass2 over a set of source files.
func NewAssembler(cfg Config, diag *Diagnostics) *Assembler {
	return &Assembler{
		Config: cfg,
		Diag:   diag,
		Global: NewSymbolTable(),
		Output: &InstrArray{},
		Debug:  NewDebugLog(),
	}
}

// Program is the result of a completed assembly: everything the image
// writer (ELF or raw hex) and the debug trailer need.
type Program struct {
	IsKernel   bool
	EntryPoint uint32
	Sections  SectionSet
	// SectionNodes holds one committed node per user-mode section, nil for
	// any section no file ever emitted into.
	SectionNodes [4]*InstrNode
	// KernelNodes holds every committed ".origin"-addressed node, in the
	// order first encountered, for kernel mode only.
	KernelNodes []*InstrNode
	Debug       *DebugLog
	Labels      []LabelEntry
}

// Assemble runs the full pipeline over files in host-supplied order:
// preprocess all of them, then Pass 1 over all of them, then (user mode
// only) finalize layout, then Pass 2 over all of them (spec.md sec.5,
// "Preprocess file 0..N-1, then Pass 1 file 0..N-1, then Pass 2
// file 0..N-1, then the image writer").
func Assemble(cfg Config, diag *Diagnostics, files []SourceFile) (*Program, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	asm := NewAssembler(cfg, diag)

	fileSyms := make([]*FileSymbols, len(files))
	buffers := make([]*Buffer, len(files))
	for i, f := range files {
		fileSyms[i] = NewFileSymbols()
		buffers[i] = NewBuffer(f.Path, f.Text)
	}

	hasStart, err := declaresStart(asm, buffers)
	if err != nil {
		return nil, err
	}

	expanded := make([]*Buffer, len(files))
	for i, buf := range buffers {
		pp, err := Preprocess(buf, i, diag, i == 0, cfg.EntryThunk && hasStart && !cfg.IsKernel)
		if err != nil {
			return nil, err
		}
		expanded[i] = pp
	}

	asm.resetTraversal()
	for i, buf := range expanded {
		if err := RunPass1(asm, buf, i, fileSyms[i]); err != nil {
			return nil, err
		}
	}

	entry, err := FinalizeLayout(asm, fileSyms)
	if err != nil {
		return nil, err
	}

	asm.resetTraversal()
	for i, buf := range expanded {
		if err := RunPass2(asm, buf, i, fileSyms[i]); err != nil {
			return nil, err
		}
	}

	if cfg.IsKernel {
		entry = 0 // kernel images always start execution at their lowest origin
	}

	for _, n := range asm.sectionNodes {
		if n != nil {
			n.Commit()
		}
	}
	for _, n := range asm.Output.Nodes() {
		n.Commit()
	}

	return &Program{
		IsKernel:     cfg.IsKernel,
		EntryPoint:   entry,
		Sections:     asm.Sections,
		SectionNodes: asm.sectionNodes,
		KernelNodes:  asm.Output.Nodes(),
		Debug:        asm.Debug,
		Labels:       CollectLabels(asm.Global, fileSyms),
	}, nil
}

// declaresStart performs a cheap scan of every file for a "_start:" label
// definition or a ".global _start" declaration, without running a full
// Pass 1, so Preprocess knows (before any pass has run) whether to prepend
// the entry-point thunk to the first file (spec.md sec.4.D). User mode
// only: kernel images have no single conventional entry symbol.
func declaresStart(asm *Assembler, buffers []*Buffer) (bool, error) {
	if asm.Config.IsKernel {
		return false, nil
	}
	for i, buf := range buffers {
		scan := NewScanner(buf, i, asm.Diag)
		cur := scan.Cursor()
		for !cur.AtEnd() {
			scan.Skip()
			if cur.AtEnd() {
				break
			}
			if name, ok := tryConsumeLabelDef(scan); ok {
				if name.String() == "_start" {
					return true, nil
				}
				continue
			}
			if dir, res := scan.ParseDirective(); res == Found {
				if dir.String() == "global" {
					if name, res := scan.ParseIdentifier(); res == Found && name.String() == "_start" {
						return true, nil
					}
				}
				consumeRestOfLine(cur)
				continue
			}
			consumeRestOfLine(cur)
		}
	}
	return false, nil
}

// PreprocessAll runs just the preprocessing stage over files, in order, and
// returns their expanded text concatenated (spec.md sec.6, "-pre: emit
// preprocessed text instead of assembling"). It mirrors the first stage of
// Assemble without running either pass.
func PreprocessAll(cfg Config, diag *Diagnostics, files []SourceFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	asm := NewAssembler(cfg, diag)

	buffers := make([]*Buffer, len(files))
	for i, f := range files {
		buffers[i] = NewBuffer(f.Path, f.Text)
	}

	hasStart, err := declaresStart(asm, buffers)
	if err != nil {
		return nil, err
	}

	var out []byte
	for i, buf := range buffers {
		pp, err := Preprocess(buf, i, diag, i == 0, cfg.EntryThunk && hasStart && !cfg.IsKernel)
		if err != nil {
			return nil, err
		}
		out = append(out, []byte(pp.Slice(0, pp.Len()))...)
	}
	return out, nil
}

func consumeRestOfLine(cur *Cursor) {
	for !cur.AtEnd() && cur.Peek() != '\n' {
		cur.Advance()
	}
}
