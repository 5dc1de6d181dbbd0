// Completion: 100% - Lexical scanner complete
package assembler

// Result is the three-valued outcome of every parse-or-restore primitive in
// the scanner: Found, NotFound (cursor untouched), or ErrorAt (a malformed
// construct was recognized well enough to diagnose). Keeping NotFound and
// ErrorAt distinct is what lets a caller tell "not a literal here" apart
// from "this looked like a literal but was broken".
type Result int

const (
	NotFound Result = iota
	Found
	ErrorAt
)

// Scanner is the character-level reader shared by the preprocessor and both
// assembly passes (component A, spec.md sec.4.A). It owns no symbol-table
// state; it only turns bytes into tokens and reports malformed ones.
type Scanner struct {
	cur  *Cursor
	path string
	diag *Diagnostics
}

// NewScanner creates a scanner positioned at the start of buf.
func NewScanner(buf *Buffer, fileIndex int, diag *Diagnostics) *Scanner {
	return &Scanner{cur: NewCursor(buf, fileIndex), path: buf.Path, diag: diag}
}

func (s *Scanner) Cursor() *Cursor { return s.cur }
func (s *Scanner) Path() string    { return s.path }
func (s *Scanner) Line() int       { return s.cur.Line() }
func (s *Scanner) AtEnd() bool     { return s.cur.AtEnd() }

// errorAt raises a SyntaxError diagnostic at the scanner's current line.
func (s *Scanner) errorAt(format string, args ...any) error {
	return s.diag.Fatal(KindSyntax, s.path, s.cur.Line(), s.cur.SourceLine(), format, args...)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool      { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' }
func isIdentCont(c byte) bool  { return isAlpha(c) || isDigit(c) || c == '.' }
func isHexDigitCh(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

// Skip consumes ASCII whitespace plus ',' and ';', which the grammar treats
// as free-form operand separators (spec.md sec.4.A).
func (s *Scanner) Skip() {
	for !s.cur.AtEnd() {
		c := s.cur.Peek()
		switch {
		case isSpaceByte(c), c == ',', c == ';':
			s.cur.Advance()
		default:
			return
		}
	}
}

// Consume matches str literally at the cursor with no word-boundary check
// and advances past it on success.
func (s *Scanner) Consume(str string) Result {
	mark := s.cur.Mark()
	for i := 0; i < len(str); i++ {
		if s.cur.Peek() != str[i] {
			s.cur.Reset(mark)
			return NotFound
		}
		s.cur.Advance()
	}
	return Found
}

// ConsumeKeyword matches str literally and additionally requires the next
// character be whitespace or end-of-input, so "add" does not match "adder".
func (s *Scanner) ConsumeKeyword(str string) Result {
	mark := s.cur.Mark()
	if s.Consume(str) != Found {
		return NotFound
	}
	next := s.cur.Peek()
	if s.cur.AtEnd() || isSpaceByte(next) || next == 0 {
		return Found
	}
	s.cur.Reset(mark)
	return NotFound
}

// ParseIdentifier parses [A-Za-z_][A-Za-z0-9_.]*.
func (s *Scanner) ParseIdentifier() (Slice, Result) {
	s.Skip()
	if s.cur.AtEnd() || !isAlpha(s.cur.Peek()) {
		return Slice{}, NotFound
	}
	start := s.cur.Pos()
	for !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) {
		s.cur.Advance()
	}
	name := s.cur.Buffer().Slice(start, s.cur.Pos())
	return NewSlice(name), Found
}

// ParseDirective parses a '.'-prefixed directive name, e.g. ".global".
func (s *Scanner) ParseDirective() (Slice, Result) {
	s.Skip()
	mark := s.cur.Mark()
	if s.cur.AtEnd() || s.cur.Peek() != '.' {
		return Slice{}, NotFound
	}
	s.cur.Advance()
	name, res := s.ParseIdentifier()
	if res != Found {
		s.cur.Reset(mark)
		return Slice{}, NotFound
	}
	return name, Found
}

// regAliases maps the register aliases to their numeric register ids.
var regAliases = map[string]int{"sp": 31, "bp": 30, "ra": 29}

// ParseRegister parses r0..r31 or the aliases sp/bp/ra. A trailing
// identifier character after a numeric form (e.g. "r0a") disqualifies the
// match so it is not mistaken for register r0.
func (s *Scanner) ParseRegister() (int, Result) {
	s.Skip()
	mark := s.cur.Mark()
	if s.cur.AtEnd() {
		return 0, NotFound
	}

	for alias, id := range regAliases {
		if s.Consume(alias) == Found {
			if !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) {
				s.cur.Reset(mark)
				continue
			}
			return id, Found
		}
	}

	if s.cur.Peek() != 'r' {
		return 0, NotFound
	}
	s.cur.Advance()
	if s.cur.AtEnd() || !isDigit(s.cur.Peek()) {
		s.cur.Reset(mark)
		return 0, NotFound
	}
	digitsStart := s.cur.Pos()
	for !s.cur.AtEnd() && isDigit(s.cur.Peek()) {
		s.cur.Advance()
	}
	if !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) {
		s.cur.Reset(mark)
		return 0, NotFound
	}
	num := 0
	for i := digitsStart; i < s.cur.Pos(); i++ {
		num = num*10 + int(s.cur.Buffer().At(i)-'0')
	}
	if num > 31 {
		s.cur.Reset(mark)
		return 0, ErrorAt
	}
	return num, Found
}

// crAliasOrder is the control-register alias table from spec.md sec.4.A,
// in declaration order. It is built with "insert if absent" semantics so
// that an accidental duplicate name (the documented epc/epc bug from an
// early version of the original assembler, spec.md sec.9) resolves to the
// first occurrence, never the second.
var crAliasOrder = []string{
	"psr", "pid", "isr", "imr", "epc", "flg", "efg",
	"tlb", "ksp", "cid", "mbi", "mbo", "isp",
}

var crAliases = buildCRAliases()

func buildCRAliases() map[string]int {
	m := make(map[string]int, len(crAliasOrder))
	for i, name := range crAliasOrder {
		if _, exists := m[name]; exists {
			continue // first occurrence is authoritative
		}
		m[name] = i
	}
	return m
}

// ParseControlRegister parses cr0..cr12 or one of the named aliases above.
func (s *Scanner) ParseControlRegister() (int, Result) {
	s.Skip()
	mark := s.cur.Mark()
	if s.cur.AtEnd() {
		return 0, NotFound
	}

	for _, name := range crAliasOrder {
		if s.Consume(name) == Found {
			if !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) {
				s.cur.Reset(mark)
				continue
			}
			return crAliases[name], Found
		}
	}

	if s.Consume("cr") != Found {
		return 0, NotFound
	}
	if s.cur.AtEnd() || !isDigit(s.cur.Peek()) {
		s.cur.Reset(mark)
		return 0, NotFound
	}
	digitsStart := s.cur.Pos()
	for !s.cur.AtEnd() && isDigit(s.cur.Peek()) {
		s.cur.Advance()
	}
	if !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) {
		s.cur.Reset(mark)
		return 0, NotFound
	}
	num := 0
	for i := digitsStart; i < s.cur.Pos(); i++ {
		num = num*10 + int(s.cur.Buffer().At(i)-'0')
	}
	if num > 12 {
		s.cur.Reset(mark)
		return 0, ErrorAt
	}
	return num, Found
}

// isLiteralTerminator reports whether c legally follows a stand-alone zero
// literal: whitespace, end-of-input, NUL, ']', '#', ',' or ';'.
func isLiteralTerminator(c byte, atEnd bool) bool {
	return atEnd || isSpaceByte(c) || c == 0 || c == ']' || c == '#' || c == ',' || c == ';'
}

// ParseLiteral parses an optionally-negative integer literal: decimal (no
// leading zero except the zero literal itself), 0b/0B binary, 0o/0O octal,
// or 0x/0X hex. At least one digit is required in each base.
func (s *Scanner) ParseLiteral() (int64, Result) {
	s.Skip()
	mark := s.cur.Mark()
	if s.cur.AtEnd() {
		return 0, NotFound
	}

	negative := false
	if s.cur.Peek() == '-' {
		negative = true
		s.cur.Advance()
		s.Skip()
	}
	if s.cur.AtEnd() || !isDigit(s.cur.Peek()) {
		s.cur.Reset(mark)
		return 0, NotFound
	}

	if s.cur.Peek() == '0' {
		next := s.cur.PeekAt(1)
		switch next {
		case 'b', 'B':
			return s.finishRadix(mark, negative, 2, 2)
		case 'o', 'O':
			return s.finishRadix(mark, negative, 2, 8)
		case 'x', 'X':
			return s.finishRadix(mark, negative, 2, 16)
		default:
			if isLiteralTerminator(next, s.cur.Pos()+1 >= s.cur.Buffer().Len()) {
				s.cur.Advance() // consume the single '0'
				return 0, Found
			}
			if isDigit(next) {
				v, res := s.readError(mark, "decimal literal may not have a leading zero")
				return v, res
			}
		}
	}

	start := s.cur.Pos()
	for !s.cur.AtEnd() && isDigit(s.cur.Peek()) {
		s.cur.Advance()
	}
	val := parseDigits(s.cur.Buffer(), start, s.cur.Pos(), 10)
	if negative {
		val = -val
	}
	return val, Found
}

// finishRadix consumes the 2-character base prefix already identified at
// the cursor, then a run of digits valid in that base.
func (s *Scanner) finishRadix(mark Mark, negative bool, prefixLen, base int) (int64, Result) {
	for i := 0; i < prefixLen; i++ {
		s.cur.Advance()
	}
	start := s.cur.Pos()
	for !s.cur.AtEnd() && isDigitInBase(s.cur.Peek(), base) {
		s.cur.Advance()
	}
	if s.cur.Pos() == start {
		return s.readError(mark, "expected at least one digit in base-%d literal", base)
	}
	if !s.cur.AtEnd() && isIdentCont(s.cur.Peek()) && !isDigitInBase(s.cur.Peek(), base) {
		return s.readError(mark, "invalid digit in base-%d literal", base)
	}
	val := parseDigits(s.cur.Buffer(), start, s.cur.Pos(), base)
	if negative {
		val = -val
	}
	return val, Found
}

func (s *Scanner) readError(mark Mark, format string, args ...any) (int64, Result) {
	s.errorAt(format, args...) // prints via the has-printed latch; Result carries the abort signal
	s.cur.Reset(mark)
	return 0, ErrorAt
}

func isDigitInBase(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return isHexDigitCh(c)
	default:
		return isDigit(c)
	}
}

func digitValue(c byte) int64 {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0')
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int64(c-'A') + 10
	default:
		return 0
	}
}

func parseDigits(buf *Buffer, start, end, base int) int64 {
	var v int64
	for i := start; i < end; i++ {
		v = v*int64(base) + digitValue(buf.At(i))
	}
	return v
}

// Errorf formats an arbitrary diagnostic at the scanner's current position,
// for callers (preprocessor, Pass 1, Pass 2) that detect semantic problems
// the scanner itself has no opinion about.
func (s *Scanner) Errorf(kind Kind, format string, args ...any) error {
	return s.diag.Fatal(kind, s.path, s.cur.Line(), s.cur.SourceLine(), format, args...)
}

// Warnf formats a non-fatal diagnostic at the scanner's current position.
func (s *Scanner) Warnf(format string, args ...any) {
	s.diag.Warn(s.path, s.cur.Line(), s.cur.SourceLine(), format, args...)
}
