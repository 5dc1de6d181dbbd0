// Completion: 100% - Source buffer and slice primitives complete
package assembler

import "hash/fnv"

// Buffer is an immutable, NUL-terminated view of one input file's bytes.
// A virtual leading NUL (position -1) lets the scanner back up one byte
// past the start of the text when hunting for the start of the current
// source line without a bounds check at every step.
type Buffer struct {
	Path string
	text []byte
}

// NewBuffer wraps raw file bytes into an immutable source buffer.
func NewBuffer(path string, text []byte) *Buffer {
	return &Buffer{Path: path, text: text}
}

// Len returns the number of real bytes (excluding the virtual leading NUL).
func (b *Buffer) Len() int { return len(b.text) }

// At returns the byte at position i, or 0 for i == -1 or i >= Len().
func (b *Buffer) At(i int) byte {
	if i < 0 || i >= len(b.text) {
		return 0
	}
	return b.text[i]
}

// Slice returns the substring [start:end) as a string. Callers that need a
// map key should use Key instead so equal byte content hashes identically
// regardless of which Buffer it was cut from.
func (b *Buffer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.text) {
		end = len(b.text)
	}
	if end < start {
		return ""
	}
	return string(b.text[start:end])
}

// Slice is a borrowed byte range: a name, literal, or identifier cut out of
// a Buffer. Two slices compare equal (and hash equal) when their byte
// content is equal, independent of which Buffer or Cursor produced them --
// this is what lets a label declared in one file be looked up by name from
// another file's Pass 1/Pass 2 traversal.
type Slice struct {
	s string
}

// NewSlice wraps a borrowed string as a Slice key.
func NewSlice(s string) Slice { return Slice{s: s} }

// String returns the slice's byte content.
func (sl Slice) String() string { return sl.s }

// Empty reports whether the slice has zero length.
func (sl Slice) Empty() bool { return len(sl.s) == 0 }

// hashKey returns the FNV-1a hash of the slice's byte content, used by
// SymbolTable's chaining buckets (see symtab.go). Content hashing, not
// pointer hashing, is required by the data model: "hashing is over the byte
// content" (spec.md sec.3).
func (sl Slice) hashKey() uint64 {
	h := fnv.New64a()
	h.Write([]byte(sl.s))
	return h.Sum64()
}

// Cursor is the mutable parse position threaded through one preprocessor or
// pass invocation. It never outlives the file it was created for.
type Cursor struct {
	buf       *Buffer
	pos       int // byte offset into buf.text; -1 denotes the virtual leading NUL
	line      int // 1-based
	fileIndex int
}

// NewCursor starts a cursor at the beginning of buf's text.
func NewCursor(buf *Buffer, fileIndex int) *Cursor {
	return &Cursor{buf: buf, pos: 0, line: 1, fileIndex: fileIndex}
}

// Buffer returns the buffer this cursor walks.
func (c *Cursor) Buffer() *Buffer { return c.buf }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Line returns the current 1-based line number.
func (c *Cursor) Line() int { return c.line }

// FileIndex returns the index of the file this cursor belongs to, in
// host-supplied order.
func (c *Cursor) FileIndex() int { return c.fileIndex }

// AtEnd reports whether the cursor has consumed the whole buffer.
func (c *Cursor) AtEnd() bool { return c.pos >= c.buf.Len() }

// Peek returns the byte at the cursor without consuming it.
func (c *Cursor) Peek() byte { return c.buf.At(c.pos) }

// PeekAt returns the byte n bytes ahead of the cursor without consuming it.
func (c *Cursor) PeekAt(n int) byte { return c.buf.At(c.pos + n) }

// Advance consumes one byte, tracking line numbers.
func (c *Cursor) Advance() {
	if c.buf.At(c.pos) == '\n' {
		c.line++
	}
	c.pos++
}

// Mark saves the current position and line so a failed speculative parse
// can restore exactly (required by the NOT_FOUND contract: "never mutates
// the cursor").
type Mark struct {
	pos  int
	line int
}

func (c *Cursor) Mark() Mark { return Mark{pos: c.pos, line: c.line} }

func (c *Cursor) Reset(m Mark) {
	c.pos = m.pos
	c.line = m.line
}

// SourceLine extracts and trims the source line containing the cursor's
// current position, walking backward to the last newline (or the virtual
// leading NUL) and forward to the next newline (or end of buffer).
func (c *Cursor) SourceLine() string {
	return c.buf.LineAt(c.pos)
}

// LineAt extracts and trims the line of text containing byte offset pos.
func (b *Buffer) LineAt(pos int) string {
	if pos > len(b.text) {
		pos = len(b.text)
	}
	start := pos
	for start > 0 && b.text[start-1] != '\n' {
		start--
	}
	end := pos
	for end < len(b.text) && b.text[end] != '\n' {
		end++
	}
	return trimSpace(string(b.text[start:end]))
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}
