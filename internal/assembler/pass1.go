// Completion: 100% - Pass 1 (layout) complete
package assembler

// Traversal position (current section, whether one has been selected yet,
// and the kernel-mode free-running pc) lives on the Assembler itself
// rather than per-file state, because spec.md sec.4.F requires it survive
// file boundaries: "Exiting a file leaves the section intact for the next
// file," and kernel mode's pc is a single continuous address space across
// every input file. resetTraversal reinitializes it, together with the
// per-section offsets, at the start of each full pass (Pass 1, then again
// for Pass 2).
func (asm *Assembler) resetTraversal() {
	asm.travSection = TEXT
	asm.travHaveSection = false
	asm.travPC = 0
	asm.travNode = nil
	asm.Sections.Offset = [4]uint32{}
}

// RunPass1 walks buf once, recording labels/defines/.global declarations and
// section/pc bookkeeping (spec.md sec.4.E). It does not emit any bytes.
func RunPass1(asm *Assembler, buf *Buffer, fileIndex int, file *FileSymbols) error {
	scan := NewScanner(buf, fileIndex, asm.Diag)
	cur := scan.Cursor()

	for {
		scan.Skip()
		if cur.AtEnd() {
			return nil
		}

		if name, ok := tryConsumeLabelDef(scan); ok {
			if err := pass1DefineLabel(asm, scan, file, name); err != nil {
				return err
			}
			continue
		}

		dir, res := scan.ParseDirective()
		if res == Found {
			if err := pass1Directive(asm, scan, file, dir.String()); err != nil {
				return err
			}
			continue
		}

		if err := requireAlignedInstruction(asm, scan); err != nil {
			return err
		}
		if _, err := dispatchInstruction(asm, scan, file, 1, asm.currentPC()); err != nil {
			return err
		}
		advancePC(asm, 4)
	}
}

// tryConsumeLabelDef speculatively parses "identifier:"; on failure the
// cursor is restored (spec.md sec.4.A label grammar: "an identifier
// followed by a colon").
func tryConsumeLabelDef(scan *Scanner) (Slice, bool) {
	mark := scan.Cursor().Mark()
	name, res := scan.ParseIdentifier()
	if res != Found {
		return Slice{}, false
	}
	if scan.Consume(":") != Found {
		scan.Cursor().Reset(mark)
		return Slice{}, false
	}
	return name, true
}

func pass1DefineLabel(asm *Assembler, scan *Scanner, file *FileSymbols, name Slice) error {
	n := name.String()
	value := labelValue(asm)

	if e, ok := file.Labels.Get(n); ok {
		if e.IsDefined {
			return scan.Errorf(KindSymbol, "Duplicate label")
		}
		file.Labels.MakeDefined(n, value)
	} else {
		file.Labels.Insert(n, value, true, asm.travSection != TEXT)
	}

	if e, ok := asm.Global.Get(n); ok {
		if e.IsDefined {
			return scan.Errorf(KindSymbol, "Duplicate global label")
		}
		asm.Global.MakeDefined(n, value)
	}
	return nil
}

// labelValue returns the value a label defined at the current position
// should carry: a packed (section, offset) in user mode, the free-running
// pc in kernel mode (spec.md sec.4.E).
func labelValue(asm *Assembler) uint64 {
	if asm.Config.IsKernel {
		return uint64(asm.travPC)
	}
	return packSectionOffset(asm.travSection, asm.travPC)
}

// currentPC returns the byte address of the next instruction/byte to be
// emitted: the kernel free-running pc, or the current section's offset.
func (asm *Assembler) currentPC() uint32 {
	if asm.Config.IsKernel {
		return asm.travPC
	}
	return asm.travPC
}

func advancePC(asm *Assembler, n uint32) {
	asm.travPC += n
	if !asm.Config.IsKernel {
		asm.Sections.Offset[asm.travSection] = asm.travPC
	}
}

// requireAlignedInstruction enforces 4-byte alignment before any
// instruction (spec.md sec.4.E, "Alignment to 4 is enforced before each
// instruction").
func requireAlignedInstruction(asm *Assembler, scan *Scanner) error {
	if asm.travPC%4 != 0 {
		return scan.Errorf(KindAlignment, "instruction address 0x%x is not 4-byte aligned", asm.travPC)
	}
	if !asm.Config.IsKernel && !asm.travHaveSection {
		return scan.Errorf(KindSection, "instruction before any section directive")
	}
	return nil
}

func pass1Directive(asm *Assembler, scan *Scanner, file *FileSymbols, dir string) error {
	switch dir {
	case "global":
		return pass1Global(asm, scan, file)
	case "define":
		return pass1Define(asm, scan, file)
	case "origin":
		return pass1Origin(asm, scan)
	case "text":
		return switchSection1(asm, scan, TEXT)
	case "rodata":
		return switchSection1(asm, scan, RODATA)
	case "data":
		return switchSection1(asm, scan, DATA)
	case "bss":
		return switchSection1(asm, scan, BSS)
	case "fill":
		return pass1Reserve(asm, scan, 4)
	case "fild":
		return pass1Reserve(asm, scan, 2)
	case "filb":
		return pass1Reserve(asm, scan, 1)
	case "space":
		return pass1Space(asm, scan)
	case "align":
		return pass1Align(asm, scan)
	case "line":
		return skipLineDirective(scan)
	case "local":
		return skipLocalDirective(scan)
	default:
		return scan.Errorf(KindSyntax, "unrecognized directive %q", "."+dir)
	}
}

func switchSection1(asm *Assembler, scan *Scanner, s Section) error {
	if asm.Config.IsKernel {
		return scan.Errorf(KindSection, ".%s is not allowed in kernel mode", s)
	}
	asm.travSection = s
	asm.travHaveSection = true
	asm.travPC = asm.Sections.Offset[s]
	return nil
}

func pass1Global(asm *Assembler, scan *Scanner, file *FileSymbols) error {
	name, res := scan.ParseIdentifier()
	if res != Found {
		return scan.Errorf(KindSyntax, ".global directive requires a label")
	}
	n := name.String()
	if !file.Globals.Contains(n) {
		file.Globals.Insert(n, 0, true, false)
	}

	if e, ok := file.Labels.Get(n); ok {
		if e.IsDefined {
			if ge, gok := asm.Global.Get(n); gok && ge.IsDefined {
				return scan.Errorf(KindSymbol, "Duplicate global label")
			}
			asm.Global.Insert(n, e.Value, true, e.IsData)
			return nil
		}
	} else {
		file.Labels.Insert(n, 0, false, false)
	}

	if !asm.Global.Contains(n) {
		asm.Global.Insert(n, 0, false, false)
	}
	return nil
}

// pass1Define resolves ".define name value" to a real value immediately:
// unlike operand resolution inside an instruction (deferred in Pass 1 and
// re-parsed in Pass 2), a define's value is computed exactly once and must
// be available to every later statement in this and subsequent passes
// (spec.md sec.4.E, "value may itself be a numeric literal, a .define, or a
// label whose definition is already known").
func pass1Define(asm *Assembler, scan *Scanner, file *FileSymbols) error {
	name, res := scan.ParseIdentifier()
	if res != Found {
		return scan.Errorf(KindSyntax, "Expected label")
	}
	n := name.String()
	if file.Defines.Contains(n) {
		return scan.Errorf(KindSymbol, "constant has multiple definitions")
	}
	value, err := resolveDefineValue(asm, scan, file)
	if err != nil {
		return err
	}
	file.Defines.Insert(n, uint64(value), true, false)
	return nil
}

// resolveDefineValue resolves a literal, a previously-recorded local
// define, or an already-defined label -- in that order, matching the
// general resolution precedence of spec.md sec.4.B. Labels declared later
// in the file (or only via a later file's .global) are not visible here;
// that limitation is inherent to a single left-to-right Pass 1 traversal.
func resolveDefineValue(asm *Assembler, scan *Scanner, file *FileSymbols) (int64, error) {
	mark := scan.Cursor().Mark()
	if name, res := scan.ParseIdentifier(); res == Found {
		n := name.String()
		e, _, ok := Resolve(file, asm.Global, n)
		if !ok {
			return 0, scan.Errorf(KindSymbol, "Label %q has not been defined", n)
		}
		return int64(e.Value), nil
	}
	scan.Cursor().Reset(mark)
	lit, res := scan.ParseLiteral()
	if res == ErrorAt {
		return 0, errAborted
	}
	if res != Found {
		return 0, scan.Errorf(KindSyntax, "expected an immediate, define, or label operand")
	}
	return lit, nil
}

func pass1Origin(asm *Assembler, scan *Scanner) error {
	if !asm.Config.IsKernel {
		return scan.Errorf(KindSection, ".origin is only allowed in kernel mode")
	}
	lit, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, "Invalid immediate")
	}
	if lit < int64(asm.travPC) {
		return scan.Errorf(KindSection, ".origin cannot be used to go backwards")
	}
	if lit >= (int64(1) << 32) {
		return scan.Errorf(KindSection, ".origin address must be a 32 bit integer")
	}
	asm.travPC = uint32(lit)
	return nil
}

// pass1Reserve accounts width bytes for .fill/.fild/.filb without recording
// the operand's value -- Pass 1 only needs the byte count, and the operand
// (literal, define, or for .fill only, a label) is fully resolved again in
// Pass 2 when it is actually encoded.
func pass1Reserve(asm *Assembler, scan *Scanner, width uint32) error {
	if asm.travSection == BSS && !asm.Config.IsKernel {
		return scan.Errorf(KindSection, "fill-style directives are forbidden in .bss")
	}
	mark := scan.Cursor().Mark()
	if _, res := scan.ParseIdentifier(); res != Found {
		scan.Cursor().Reset(mark)
		if _, res := scan.ParseLiteral(); res == ErrorAt {
			return errAborted
		} else if res != Found {
			return scan.Errorf(KindSyntax, "Invalid immediate")
		}
	}
	advancePC(asm, width)
	return nil
}

func pass1Space(asm *Assembler, scan *Scanner) error {
	n, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, "Invalid immediate")
	}
	if n < 0 {
		return scan.Errorf(KindSyntax, ".space immediate must be a positive integer")
	}
	advancePC(asm, uint32(n))
	return nil
}

func pass1Align(asm *Assembler, scan *Scanner) error {
	k, res := scan.ParseLiteral()
	if res != Found || k <= 0 || !IsPowerOfTwo(uint32(k)) {
		return scan.Errorf(KindSyntax, ".align requires a power-of-two immediate")
	}
	aligned := AlignUp(asm.travPC, uint32(k))
	advancePC(asm, aligned-asm.travPC)
	return nil
}

func skipLineDirective(scan *Scanner) error {
	if _, res := scan.ParseIdentifier(); res == ErrorAt {
		return errAborted
	}
	if _, res := scan.ParseLiteral(); res == ErrorAt {
		return errAborted
	}
	return nil
}

func skipLocalDirective(scan *Scanner) error {
	if _, res := scan.ParseIdentifier(); res == ErrorAt {
		return errAborted
	}
	if _, res := scan.ParseLiteral(); res == ErrorAt {
		return errAborted
	}
	if _, res := scan.ParseLiteral(); res == ErrorAt {
		return errAborted
	}
	return nil
}

// FinalizeLayout runs once after every file has completed Pass 1: it sizes
// and bases the four sections, rewrites every packed (section, offset)
// label value to an absolute address, and resolves the program's entry
// point (spec.md sec.4.E, tail paragraph).
func FinalizeLayout(asm *Assembler, files []*FileSymbols) (entry uint32, err error) {
	if asm.Config.IsKernel {
		return 0, nil
	}

	var size [4]uint32
	for s := Section(0); s < 4; s++ {
		if s == BSS {
			size[s] = asm.Sections.Offset[s]
		} else {
			size[s] = AlignUp(asm.Sections.Offset[s], 4)
		}
	}
	asm.Sections.Size = size
	asm.Sections.Base = userModeBases(size)

	relocate := func(t *SymbolTable) {
		for _, name := range t.Names() {
			e, _ := t.Get(name)
			if !e.IsDefined {
				continue
			}
			sec, off := unpackSection(e.Value)
			t.Update(name, uint64(asm.Sections.Base[sec]+off))
		}
	}
	relocate(asm.Global)
	for _, f := range files {
		relocate(f.Labels)
	}

	e, ok := asm.Global.Get("_start")
	if !ok || !e.IsDefined {
		return 0, asm.Diag.Fatal(KindSymbol, "", 0, "", "undefined entry symbol \"_start\"")
	}
	return uint32(e.Value), nil
}
