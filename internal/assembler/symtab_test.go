// Completion: 100% - Symbol table tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolTable_InsertGetContains(t *testing.T) {
	tbl := NewSymbolTable()
	require.False(t, tbl.Contains("main"))
	tbl.Insert("main", 0x1000, true, false)
	e, ok := tbl.Get("main")
	require.True(t, ok)
	require.True(t, e.IsDefined)
	require.Equal(t, uint64(0x1000), e.Value)
}

func TestSymbolTable_ForwardDeclareThenMakeDefined(t *testing.T) {
	tbl := NewSymbolTable()
	tbl.Insert("foo", 0, false, false)
	require.True(t, tbl.Contains("foo"))
	require.False(t, tbl.HasDefinition("foo"))
	ok := tbl.MakeDefined("foo", 0x2000)
	require.True(t, ok)
	require.True(t, tbl.HasDefinition("foo"))
	e, _ := tbl.Get("foo")
	require.Equal(t, uint64(0x2000), e.Value)
}

func TestSymbolTable_MakeDefined_UnknownNameFails(t *testing.T) {
	tbl := NewSymbolTable()
	require.False(t, tbl.MakeDefined("ghost", 1))
}

func TestSymbolTable_Update_PreservesDefinedAndData(t *testing.T) {
	tbl := NewSymbolTable()
	tbl.Insert("buf", 5, true, true)
	tbl.Update("buf", 0x3000)
	e, _ := tbl.Get("buf")
	require.Equal(t, uint64(0x3000), e.Value)
	require.True(t, e.IsDefined)
	require.True(t, e.IsData)
}

func TestSymbolTable_GrowsPastLoadFactor(t *testing.T) {
	tbl := NewSymbolTable()
	for i := 0; i < 100; i++ {
		tbl.Insert(NewSlice(rune32Name(i)).String(), uint64(i), true, false)
	}
	for i := 0; i < 100; i++ {
		e, ok := tbl.Get(rune32Name(i))
		require.True(t, ok)
		require.Equal(t, uint64(i), e.Value)
	}
}

func rune32Name(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "sym_" + string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}

func TestResolve_PrecedenceDefinesOverLabelsOverGlobal(t *testing.T) {
	global := NewSymbolTable()
	global.Insert("x", 100, true, false)

	file := NewFileSymbols()
	file.Labels.Insert("x", 200, true, false)
	file.Defines.Insert("x", 300, true, false)

	e, fromDefine, ok := Resolve(file, global, "x")
	require.True(t, ok)
	require.True(t, fromDefine)
	require.Equal(t, uint64(300), e.Value, "local define must shadow local label and global")

	file2 := NewFileSymbols()
	file2.Labels.Insert("x", 200, true, false)
	e, fromDefine, ok = Resolve(file2, global, "x")
	require.True(t, ok)
	require.False(t, fromDefine)
	require.Equal(t, uint64(200), e.Value, "local label must shadow global when no define exists")

	file3 := NewFileSymbols()
	e, fromDefine, ok = Resolve(file3, global, "x")
	require.True(t, ok)
	require.False(t, fromDefine)
	require.Equal(t, uint64(100), e.Value, "falls back to global when nothing local")
}

func TestResolve_UndefinedNameFails(t *testing.T) {
	global := NewSymbolTable()
	file := NewFileSymbols()
	_, _, ok := Resolve(file, global, "nowhere")
	require.False(t, ok)
}

// TestLabelLookupIsExactLength guards against the prefix-match bug spec.md
// sec.9 documents in one version of the reference assembler (a strncmp
// lookup with no length check): "main" and "main2" must never collide,
// regardless of insertion order.
func TestLabelLookupIsExactLength(t *testing.T) {
	tbl := NewSymbolTable()
	tbl.Insert("main", 0x1000, true, false)
	tbl.Insert("main2", 0x2000, true, false)

	e, ok := tbl.Get("main")
	require.True(t, ok)
	require.Equal(t, uint64(0x1000), e.Value)

	e, ok = tbl.Get("main2")
	require.True(t, ok)
	require.Equal(t, uint64(0x2000), e.Value)

	require.False(t, tbl.Contains("mai"))
	require.False(t, tbl.Contains("main22"))
}
