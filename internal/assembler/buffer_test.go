// Completion: 100% - Buffer and Slice tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlice_ContentEquality(t *testing.T) {
	a := NewSlice("main")
	b := NewSlice("main")
	require.Equal(t, a.hashKey(), b.hashKey())
	require.Equal(t, a.String(), b.String())
}

func TestBuffer_LineAt_TrimsAndIsolatesLine(t *testing.T) {
	buf := NewBuffer("f.s", []byte("first\n  second line  \nthird"))
	require.Equal(t, "first", buf.LineAt(2))
	require.Equal(t, "second line", buf.LineAt(9))
	require.Equal(t, "third", buf.LineAt(len([]byte("first\n  second line  \nthird"))))
}

func TestCursor_MarkReset(t *testing.T) {
	buf := NewBuffer("f.s", []byte("abc"))
	cur := NewCursor(buf, 0)
	mark := cur.Mark()
	cur.Advance()
	cur.Advance()
	require.Equal(t, 2, cur.Pos())
	cur.Reset(mark)
	require.Equal(t, 0, cur.Pos())
}

func TestCursor_AtEndAndVirtualNUL(t *testing.T) {
	buf := NewBuffer("f.s", nil)
	cur := NewCursor(buf, 0)
	require.True(t, cur.AtEnd())
	require.Equal(t, byte(0), cur.Peek())
}
