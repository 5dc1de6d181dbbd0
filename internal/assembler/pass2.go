// Completion: 100% - Pass 2 (emit) and shared instruction dispatcher complete
package assembler

// pass2State is a thin per-file handle into the Assembler's persistent
// traversal fields (section, pc, active node). The traversal state itself
// lives on the Assembler, not here, because it must survive file
// boundaries: spec.md sec.4.F says exiting a file leaves the section
// intact for the next one, and kernel mode's pc is a single free-running
// address space across every input file.
type pass2State struct {
	asm  *Assembler
	file *FileSymbols
}

// RunPass2 walks buf a second time, now actually encoding instructions and
// emitting data-directive bytes (spec.md sec.4.F). Labels are re-parsed and
// skipped (already resolved in Pass 1 / FinalizeLayout).
func RunPass2(asm *Assembler, buf *Buffer, fileIndex int, file *FileSymbols) error {
	p2 := &pass2State{asm: asm, file: file}
	if asm.Config.IsKernel && asm.travNode == nil {
		asm.travNode = asm.kernelNode(0)
	}
	scan := NewScanner(buf, fileIndex, asm.Diag)
	cur := scan.Cursor()

	for {
		scan.Skip()
		if cur.AtEnd() {
			return nil
		}

		if _, ok := tryConsumeLabelDef(scan); ok {
			continue // already resolved; Pass 2 only needs the byte stream
		}

		dir, res := scan.ParseDirective()
		if res == Found {
			if err := pass2Directive(p2, scan, dir.String()); err != nil {
				return err
			}
			continue
		}

		if asm.travPC%4 != 0 {
			return scan.Errorf(KindAlignment, "instruction address 0x%x is not 4-byte aligned", asm.travPC)
		}
		if asm.travSection == BSS && !asm.Config.IsKernel {
			return scan.Errorf(KindSection, "instructions are forbidden in .bss")
		}
		words, err := dispatchInstruction(asm, scan, file, 2, p2.currentAddr())
		if err != nil {
			return err
		}
		if !asm.Config.IsKernel && (asm.travSection == RODATA || asm.travSection == DATA) {
			scan.Warnf("instruction encoded in %s", asm.travSection)
		}
		for _, w := range words {
			asm.travNode.AppendWord(w)
		}
		p2.advancePC(4)
	}
}

func (p2 *pass2State) advancePC(n uint32) {
	p2.asm.travPC += n
	if !p2.asm.Config.IsKernel {
		p2.asm.Sections.Offset[p2.asm.travSection] = p2.asm.travPC
	}
}

// kernelNode starts a fresh output node at the given origin and makes it
// the active node (spec.md sec.4.F, ".origin a: start a new output node").
func (asm *Assembler) kernelNode(origin uint32) *InstrNode {
	return asm.Output.NewNode(origin)
}

func pass2Directive(p2 *pass2State, scan *Scanner, dir string) error {
	switch dir {
	case "global", "define":
		return skipGlobalOrDefine(scan, dir)
	case "origin":
		return pass2Origin(p2, scan)
	case "text":
		return p2.switchSection(scan, TEXT)
	case "rodata":
		return p2.switchSection(scan, RODATA)
	case "data":
		return p2.switchSection(scan, DATA)
	case "bss":
		return p2.switchSection(scan, BSS)
	case "fill":
		return pass2Fill(p2, scan, 4)
	case "fild":
		return pass2Fill(p2, scan, 2)
	case "filb":
		return pass2Fill(p2, scan, 1)
	case "space":
		return pass2Space(p2, scan)
	case "align":
		return pass2Align(p2, scan)
	case "line":
		return pass2Line(p2, scan)
	case "local":
		return pass2Local(p2, scan)
	default:
		return scan.Errorf(KindSyntax, "unrecognized directive %q", "."+dir)
	}
}

// skipGlobalOrDefine consumes a .global/.define statement's operands
// without acting on them; both were fully processed in Pass 1.
func skipGlobalOrDefine(scan *Scanner, dir string) error {
	if _, res := scan.ParseIdentifier(); res != Found {
		return scan.Errorf(KindSyntax, ".%s directive requires a label", dir)
	}
	if dir == "define" {
		mark := scan.Cursor().Mark()
		if _, res := scan.ParseIdentifier(); res != Found {
			scan.Cursor().Reset(mark)
			if _, res := scan.ParseLiteral(); res == ErrorAt {
				return errAborted
			}
		}
	}
	return nil
}

func (p2 *pass2State) switchSection(scan *Scanner, s Section) error {
	if p2.asm.Config.IsKernel {
		return scan.Errorf(KindSection, ".%s is not allowed in kernel mode", s)
	}
	p2.asm.travSection = s
	p2.asm.travHaveSection = true
	p2.asm.travPC = p2.asm.Sections.Offset[s]
	if s != BSS {
		p2.asm.travNode = p2.asm.sectionNode(s)
	}
	return nil
}

// sectionNode returns the single persistent InstrNode backing section s,
// creating it (based at its section's computed virtual address) the first
// time any file emits into it.
func (asm *Assembler) sectionNode(s Section) *InstrNode {
	if asm.sectionNodes[s] == nil {
		asm.sectionNodes[s] = &InstrNode{Origin: asm.Sections.Base[s]}
	}
	return asm.sectionNodes[s]
}

func pass2Origin(p2 *pass2State, scan *Scanner) error {
	if !p2.asm.Config.IsKernel {
		return scan.Errorf(KindSection, ".origin is only allowed in kernel mode")
	}
	lit, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, "Invalid immediate")
	}
	p2.asm.travPC = uint32(lit)
	p2.asm.travNode = p2.asm.kernelNode(p2.asm.travPC)
	return nil
}

// pass2Fill resolves and emits a .fill/.fild/.filb operand. Only .fill
// (width 4) may take a label operand; .fild/.filb are restricted to
// defines and literals (spec.md sec.4.E: "labels are permitted only for
// .fill").
func pass2Fill(p2 *pass2State, scan *Scanner, width uint32) error {
	if p2.asm.travSection == BSS && !p2.asm.Config.IsKernel {
		return scan.Errorf(KindSection, "fill-style directives are forbidden in .bss")
	}
	if !p2.asm.Config.IsKernel && p2.asm.travSection == TEXT {
		scan.Warnf(".fill-style directive used in .text")
	}

	value, isLabel, err := resolveFillOperand(p2.asm, scan, p2.file)
	if err != nil {
		return err
	}
	if isLabel && width != 4 {
		return scan.Errorf(KindSyntax, "labels are only permitted as .fill operands")
	}

	switch width {
	case 4:
		p2.asm.travNode.AppendWord(value)
	case 2:
		p2.asm.travNode.AppendHalf(uint16(value), p2.asm.travPC)
	case 1:
		p2.asm.travNode.AppendByte(uint8(value), p2.asm.travPC)
	}
	p2.advancePC(width)
	return nil
}

func resolveFillOperand(asm *Assembler, scan *Scanner, file *FileSymbols) (value uint32, isLabel bool, err error) {
	mark := scan.Cursor().Mark()
	if name, res := scan.ParseIdentifier(); res == Found {
		n := name.String()
		e, fromDefine, ok := Resolve(file, asm.Global, n)
		if !ok {
			return 0, false, scan.Errorf(KindSymbol, "Label %q has not been defined", n)
		}
		return uint32(e.Value), !fromDefine, nil
	}
	scan.Cursor().Reset(mark)
	lit, res := scan.ParseLiteral()
	if res == ErrorAt {
		return 0, false, errAborted
	}
	if res != Found {
		return 0, false, scan.Errorf(KindSyntax, "expected an immediate, define, or label operand")
	}
	return uint32(lit), false, nil
}

func pass2Space(p2 *pass2State, scan *Scanner) error {
	n, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, "Invalid immediate")
	}
	zeroFill(p2, uint32(n))
	p2.advancePC(uint32(n))
	return nil
}

func pass2Align(p2 *pass2State, scan *Scanner) error {
	k, res := scan.ParseLiteral()
	if res != Found || k <= 0 || !IsPowerOfTwo(uint32(k)) {
		return scan.Errorf(KindSyntax, ".align requires a power-of-two immediate")
	}
	aligned := AlignUp(p2.asm.travPC, uint32(k))
	pad := aligned - p2.asm.travPC
	zeroFill(p2, pad)
	p2.advancePC(pad)
	return nil
}

// zeroFill appends n zero bytes byte-by-byte so the pc%4 sub-word packing
// in InstrNode stays correct regardless of n's alignment; BSS accounts the
// byte count without storing anything (spec.md sec.4.F).
func zeroFill(p2 *pass2State, n uint32) {
	if p2.asm.travSection == BSS && !p2.asm.Config.IsKernel {
		return
	}
	for i := uint32(0); i < n; i++ {
		p2.asm.travNode.AppendByte(0, p2.asm.travPC+i)
	}
}

func pass2Line(p2 *pass2State, scan *Scanner) error {
	path, res := scan.ParseIdentifier()
	if res != Found {
		return scan.Errorf(KindSyntax, ".line requires a path and line number")
	}
	lineno, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, ".line requires a path and line number")
	}
	p2.asm.Debug.AddLine(path.String(), lineno, p2.currentAddr())
	return nil
}

func pass2Local(p2 *pass2State, scan *Scanner) error {
	name, res := scan.ParseIdentifier()
	if res != Found {
		return scan.Errorf(KindSyntax, ".local requires a name, bp offset, and size")
	}
	bpOffset, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, ".local requires a name, bp offset, and size")
	}
	size, res := scan.ParseLiteral()
	if res != Found {
		return scan.Errorf(KindSyntax, ".local requires a name, bp offset, and size")
	}
	p2.asm.Debug.AddLocal(name.String(), bpOffset, size, p2.currentAddr())
	return nil
}

// currentAddr returns the absolute address of the next byte to be emitted,
// used by .line/.local (spec.md sec.4.F: "pc_at_next_byte").
func (p2 *pass2State) currentAddr() uint32 {
	if p2.asm.Config.IsKernel {
		return p2.asm.travPC
	}
	return p2.asm.Sections.Base[p2.asm.travSection] + p2.asm.travPC
}

// resolveOperand parses a single literal-or-label operand and returns its
// value with the general PC-relative correction applied to label operands
// (spec.md sec.4.F: "imm = target_address - (pc + 4)"). Constants (from
// local_defines) and plain literals are returned as-is. On Pass 1
// (passNumber==1) label values are not yet final, so the parse is purely
// syntactic and a zero sentinel is returned (spec.md sec.4.B, "in Pass 1,
// deferred with a sentinel value of 0").
func resolveOperand(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32) (int64, error) {
	mark := scan.Cursor().Mark()
	if name, res := scan.ParseIdentifier(); res == Found {
		if passNumber == 1 {
			return 0, nil
		}
		n := name.String()
		e, fromDefine, ok := Resolve(file, asm.Global, n)
		if !ok {
			return 0, scan.Errorf(KindSymbol, "Label %q has not been defined", n)
		}
		if fromDefine {
			return int64(e.Value), nil
		}
		return int64(e.Value) - int64(pc) - 4, nil
	}
	scan.Cursor().Reset(mark)
	lit, res := scan.ParseLiteral()
	if res == ErrorAt {
		return 0, errAborted
	}
	if res != Found {
		return 0, scan.Errorf(KindSyntax, "expected an immediate or label operand")
	}
	return lit, nil
}

// resolveMovOperand resolves the operand of a movu/movl pseudo-instruction
// half: a literal or a defined constant is returned as-is; a label
// resolves to its plain absolute address (isLabel=true) so the caller can
// apply the -8/-4 pair bias instead of the generic PC-relative correction
// (spec.md sec.4.C, "the encoder detects which by re-checking whether the
// operand name resolves in local_defines... or in the label tables").
func resolveMovOperand(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int) (value uint32, isLabel bool, err error) {
	mark := scan.Cursor().Mark()
	if name, res := scan.ParseIdentifier(); res == Found {
		if passNumber == 1 {
			return 0, false, nil
		}
		n := name.String()
		e, fromDefine, ok := Resolve(file, asm.Global, n)
		if !ok {
			return 0, false, scan.Errorf(KindSymbol, "Label %q has not been defined", n)
		}
		return uint32(e.Value), !fromDefine, nil
	}
	scan.Cursor().Reset(mark)
	lit, res := scan.ParseLiteral()
	if res == ErrorAt {
		return 0, false, errAborted
	}
	if res != Found {
		return 0, false, scan.Errorf(KindSyntax, "movi expects label or integer literal")
	}
	return uint32(lit), false, nil
}

func expectRegister(scan *Scanner) (int, error) {
	r, res := scan.ParseRegister()
	if res != Found {
		return 0, scan.Errorf(KindSyntax, "Invalid register: valid registers are r0 - r31")
	}
	return r, nil
}

// dispatchInstruction is the single mnemonic table shared by both passes
// (spec.md sec.9: "the reference source's consume_instruction"). On Pass 1
// it parses purely for syntax/byte-count and returns a single dummy word;
// on Pass 2 it fully resolves operands and returns the encoded word(s).
func dispatchInstruction(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32) ([]uint32, error) {
	switch {
	case scan.ConsumeKeyword("lui") == Found:
		return dispatchLUI(asm, scan, file, passNumber)
	case scan.ConsumeKeyword("movu") == Found:
		return dispatchMovu(asm, scan, file, passNumber)
	case scan.ConsumeKeyword("movl") == Found:
		return dispatchMovl(asm, scan, file, passNumber)
	case scan.ConsumeKeyword("adpc") == Found:
		return dispatchADPC(asm, scan, file, passNumber, pc)
	case scan.ConsumeKeyword("jmp") == Found:
		return dispatchJmp(asm, scan, file, passNumber, pc)
	case scan.ConsumeKeyword("sys") == Found:
		return dispatchSyscall(scan)
	case scan.ConsumeKeyword("tlbr") == Found:
		return dispatchTLB(asm, scan, TLBRead)
	case scan.ConsumeKeyword("tlbw") == Found:
		return dispatchTLB(asm, scan, TLBWrite)
	case scan.ConsumeKeyword("tlbc") == Found:
		return dispatchTLB(asm, scan, TLBClear)
	case scan.ConsumeKeyword("crmv") == Found:
		return dispatchCRMV(asm, scan)
	case scan.ConsumeKeyword("mode") == Found:
		return dispatchMode(asm, scan)
	case scan.ConsumeKeyword("rfi") == Found:
		return dispatchRFE(asm, scan, true)
	case scan.ConsumeKeyword("rfe") == Found:
		return dispatchRFE(asm, scan, false)
	case scan.ConsumeKeyword("ipi") == Found:
		return dispatchIPI(asm, scan)
	}

	if mn, ok := matchKeyword(scan, memKeywordsLongestFirst); ok {
		return dispatchMem(asm, scan, file, passNumber, pc, mn)
	}
	if mn, ok := matchKeyword(scan, atomicKeywordsLongestFirst); ok {
		return dispatchAtomic(asm, scan, file, passNumber, pc, mn)
	}
	if mn, ok := matchKeyword(scan, branchKeywordsLongestFirst); ok {
		return dispatchBranch(asm, scan, file, passNumber, pc, mn)
	}
	if mn, ok := matchKeyword(scan, aluKeywordsLongestFirst); ok {
		return dispatchALU(asm, scan, file, passNumber, pc, mn)
	}

	return nil, scan.Errorf(KindSyntax, "Unrecognized instruction")
}

// matchKeyword tries each candidate (already sorted longest-first by the
// caller so e.g. "lwa" is tried before "lw") and returns the one that
// matches at the cursor as a keyword.
func matchKeyword(scan *Scanner, candidates []string) (string, bool) {
	for _, c := range candidates {
		if scan.ConsumeKeyword(c) == Found {
			return c, true
		}
	}
	return "", false
}

func dispatchLUI(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int) ([]uint32, error) {
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	value, _, err := resolveMovOperand(asm, scan, file, passNumber)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	w, encErr := EncodeLUI(rA, value)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchMovu(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int) ([]uint32, error) {
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	value, isLabel, err := resolveMovOperand(asm, scan, file, passNumber)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	if isLabel {
		value = MovuLabelValue(value)
	}
	w, encErr := EncodeMovu(rA, value)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchMovl(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int) ([]uint32, error) {
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	value, isLabel, err := resolveMovOperand(asm, scan, file, passNumber)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	if isLabel {
		value = MovlLabelValue(value)
	}
	w, encErr := EncodeMovl(rA, value)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchADPC(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32) ([]uint32, error) {
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	imm, err := resolveOperand(asm, scan, file, passNumber, pc)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	w, encErr := EncodeADPC(rA, imm)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchSyscall(scan *Scanner) ([]uint32, error) {
	if scan.ConsumeKeyword("EXIT") != Found {
		return nil, scan.Errorf(KindSyntax, "Unrecognized syscall")
	}
	return []uint32{EncodeSyscallExit()}, nil
}

func (asm *Assembler) checkPrivileged(scan *Scanner) error {
	if !asm.Config.IsKernel {
		return scan.Errorf(KindEncoding, "privileged instruction without kernel mode")
	}
	return nil
}

func dispatchTLB(asm *Assembler, scan *Scanner, op TLBOp) ([]uint32, error) {
	if err := asm.checkPrivileged(scan); err != nil {
		return nil, err
	}
	if op == TLBClear {
		return []uint32{EncodeTLB(op, 0, 0)}, nil
	}
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	rB, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	return []uint32{EncodeTLB(op, rA, rB)}, nil
}

func dispatchCRMV(asm *Assembler, scan *Scanner) ([]uint32, error) {
	if err := asm.checkPrivileged(scan); err != nil {
		return nil, err
	}
	if rA, res := scan.ParseRegister(); res == Found {
		crB, res := scan.ParseControlRegister()
		if res != Found {
			return nil, scan.Errorf(KindSyntax, "Invalid control register")
		}
		return []uint32{EncodeCRMV(CRMVCtrlToReg, rA, crB)}, nil
	}
	crA, res := scan.ParseControlRegister()
	if res != Found {
		return nil, scan.Errorf(KindSyntax, "Invalid register or control register")
	}
	if crB, res := scan.ParseControlRegister(); res == Found {
		return []uint32{EncodeCRMV(CRMVCtrlToCtrl, crA, crB)}, nil
	}
	rB, res := scan.ParseRegister()
	if res != Found {
		return nil, scan.Errorf(KindSyntax, "Invalid control register")
	}
	return []uint32{EncodeCRMV(CRMVRegToCtrl, crA, rB)}, nil
}

func dispatchMode(asm *Assembler, scan *Scanner) ([]uint32, error) {
	if err := asm.checkPrivileged(scan); err != nil {
		return nil, err
	}
	switch {
	case scan.ConsumeKeyword("run") == Found:
		return []uint32{EncodeMode(ModeRun)}, nil
	case scan.ConsumeKeyword("sleep") == Found:
		return []uint32{EncodeMode(ModeSleep)}, nil
	case scan.ConsumeKeyword("halt") == Found:
		return []uint32{EncodeMode(ModeHalt)}, nil
	default:
		return nil, scan.Errorf(KindSyntax, "Invalid mode: valid modes are run, sleep, or halt")
	}
}

func dispatchRFE(asm *Assembler, scan *Scanner, isInterrupt bool) ([]uint32, error) {
	if err := asm.checkPrivileged(scan); err != nil {
		return nil, err
	}
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	rB, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	return []uint32{EncodeRFE(isInterrupt, rA, rB)}, nil
}

func dispatchIPI(asm *Assembler, scan *Scanner) ([]uint32, error) {
	if err := asm.checkPrivileged(scan); err != nil {
		return nil, err
	}
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	return []uint32{EncodeIPI(rA)}, nil
}

var aluKeywordsLongestFirst = sortedKeys(AluMnemonics)
var memKeywordsLongestFirst = sortedKeys(MemMnemonics)
var branchKeywordsLongestFirst = branchKeywords()
var atomicKeywordsLongestFirst = sortedKeys(AtomicMnemonics)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortLongestFirst(keys)
	return keys
}

func branchKeywords() []string {
	keys := make([]string, 0, len(CondMnemonics)*2)
	for k := range CondMnemonics {
		keys = append(keys, k, k+"a")
	}
	sortLongestFirst(keys)
	return keys
}

// sortLongestFirst insertion-sorts candidates longest-first so e.g. "bbe"
// is tried before "bb" and "bbea" before "bbe". ConsumeKeyword's
// word-boundary check already keeps a shorter keyword from matching the
// start of a longer one, so the order only fixes which candidate is tried
// first.
func sortLongestFirst(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j-1]) < len(s[j]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func dispatchALU(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32, mnemonic string) ([]uint32, error) {
	op := AluMnemonics[mnemonic]
	isCmp := mnemonic == "cmp"
	isUnary := AluIsUnary(op)

	rA := 0
	var err error
	if !isCmp {
		rA, err = expectRegister(scan)
		if err != nil {
			return nil, err
		}
	}

	rB := 0
	switch {
	case isCmp:
		rB, err = expectRegister(scan)
		if err != nil {
			return nil, err
		}
		rA = 0
	case !isUnary:
		rB, err = expectRegister(scan)
		if err != nil {
			return nil, err
		}
	}

	if rC, res := scan.ParseRegister(); res == Found {
		if passNumber == 1 {
			return []uint32{0}, nil
		}
		w, encErr := EncodeALURegister(op, rA, rB, rC)
		if encErr != nil {
			return nil, scan.Errorf(KindEncoding, "%s", encErr)
		}
		return []uint32{w}, nil
	}

	imm, err := resolveOperand(asm, scan, file, passNumber, pc)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	w, encErr := EncodeALUImmediate(op, rA, rB, imm)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchMem(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32, mnemonic string) ([]uint32, error) {
	info := MemMnemonics[mnemonic]
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	if scan.Consume("[") != Found {
		return nil, scan.Errorf(KindSyntax, "Expected \"[\" in memory instruction")
	}

	rB, hasBase := scan.ParseRegister()
	if hasBase != Found && info.RequiresBase {
		return nil, scan.Errorf(KindSyntax, "Invalid register: valid registers are r0 - r31")
	}

	var imm int64
	mode := ModeOffset
	if scan.Consume("]") == Found {
		if hasBase == Found && info.RequiresBase {
			if lit, res := scan.ParseLiteral(); res == Found {
				imm = lit
				mode = ModePostIncr
			}
		}
	} else {
		imm, err = resolveOperand(asm, scan, file, passNumber, pc)
		if err != nil {
			return nil, err
		}
		if scan.Consume("]") != Found {
			return nil, scan.Errorf(KindSyntax, "Expected \"]\" in memory instruction")
		}
		if scan.Consume("!") == Found {
			if !info.RequiresBase {
				return nil, scan.Errorf(KindSyntax, "Preincrement addressing not allowed for relative addressing")
			}
			mode = ModePreIncrement
		}
	}

	if passNumber == 1 {
		return []uint32{0}, nil
	}

	var w uint32
	var encErr error
	switch {
	case info.RequiresBase:
		w, encErr = EncodeMemAbsolute(info.Width, info.Load, rA, rB, mode, imm)
	case hasBase == Found:
		w, encErr = EncodeMemRelativeReg(info.Width, info.Load, rA, rB, imm)
	default:
		w, encErr = EncodeMemLongRelative(info.Width, info.Load, rA, imm)
	}
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchAtomic(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32, mnemonic string) ([]uint32, error) {
	info := AtomicMnemonics[mnemonic]
	rA, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}

	if info.Absolute {
		if scan.Consume("[") != Found {
			return nil, scan.Errorf(KindSyntax, "Expected \"[\" in atomic instruction")
		}
		rB, err := expectRegister(scan)
		if err != nil {
			return nil, err
		}
		rC, err := expectRegister(scan)
		if err != nil {
			return nil, err
		}
		if scan.Consume("]") != Found {
			return nil, scan.Errorf(KindSyntax, "Expected \"]\" in atomic instruction")
		}
		imm, err := resolveOperand(asm, scan, file, passNumber, pc)
		if err != nil {
			return nil, err
		}
		if passNumber == 1 {
			return []uint32{0}, nil
		}
		w, encErr := EncodeAtomicAbs(info.Op, rA, rB, rC, imm)
		if encErr != nil {
			return nil, scan.Errorf(KindEncoding, "%s", encErr)
		}
		return []uint32{w}, nil
	}

	rC, err := expectRegister(scan)
	if err != nil {
		return nil, err
	}
	imm, err := resolveOperand(asm, scan, file, passNumber, pc)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	w, encErr := EncodeAtomicLong(info.Op, rA, rC, imm)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

// dispatchJmp handles the "jmp" alias, which (unlike plain "br" or any
// other conditional mnemonic) always uses the absolute register form when
// given a register operand, never the relative-register form (spec.md
// sec.4.C: "jmp is the unconditional alias with branch_code=0" -- grounded
// against the reference assembler's consume_jmp, which hardcodes is_absolute).
func dispatchJmp(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32) ([]uint32, error) {
	if rB, res := scan.ParseRegister(); res == Found {
		if passNumber == 1 {
			return []uint32{0}, nil
		}
		w, err := EncodeBranchRegAbs(CondR, 0, rB)
		if err != nil {
			return nil, scan.Errorf(KindEncoding, "%s", err)
		}
		return []uint32{w}, nil
	}
	imm, err := resolveOperand(asm, scan, file, passNumber, pc)
	if err != nil {
		return nil, err
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	w, encErr := EncodeBranchImm(CondR, imm)
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}

func dispatchBranch(asm *Assembler, scan *Scanner, file *FileSymbols, passNumber int, pc uint32, mnemonic string) ([]uint32, error) {
	absolute := false
	base := mnemonic
	if _, ok := CondMnemonics[mnemonic]; !ok {
		absolute = true
		base = mnemonic[:len(mnemonic)-1]
	}
	cond := CondMnemonics[base]

	rA, res := scan.ParseRegister()
	if res != Found {
		if absolute {
			return nil, scan.Errorf(KindSyntax, "Immediate branch is not allowed for absolute branches")
		}
		imm, err := resolveOperand(asm, scan, file, passNumber, pc)
		if err != nil {
			return nil, err
		}
		if passNumber == 1 {
			return []uint32{0}, nil
		}
		w, encErr := EncodeBranchImm(cond, imm)
		if encErr != nil {
			return nil, scan.Errorf(KindEncoding, "%s", encErr)
		}
		return []uint32{w}, nil
	}

	rB, res := scan.ParseRegister()
	if res != Found {
		rB = rA
		rA = 0
	}
	if passNumber == 1 {
		return []uint32{0}, nil
	}
	var w uint32
	var encErr error
	if absolute {
		w, encErr = EncodeBranchRegAbs(cond, rA, rB)
	} else {
		w, encErr = EncodeBranchRegRel(cond, rA, rB)
	}
	if encErr != nil {
		return nil, scan.Errorf(KindEncoding, "%s", encErr)
	}
	return []uint32{w}, nil
}
