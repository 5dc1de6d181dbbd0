// Completion: 100% - Pass 1 layout tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func runPass1(t *testing.T, cfg Config, text string) (*Assembler, *FileSymbols, error) {
	t.Helper()
	diag := NewDiagnostics(false)
	asm := NewAssembler(cfg, diag)
	asm.resetTraversal()
	buf := NewBuffer("t.s", []byte(text))
	file := NewFileSymbols()
	err := RunPass1(asm, buf, 0, file)
	return asm, file, err
}

func TestRunPass1_LabelGetsPackedSectionOffset(t *testing.T) {
	_, file, err := runPass1(t, Config{}, ".text\nstart:\n  add r1, r2, r3\n")
	require.NoError(t, err)
	e, ok := file.Labels.Get("start")
	require.True(t, ok)
	require.True(t, e.IsDefined)
	sec, off := unpackSection(e.Value)
	require.Equal(t, TEXT, sec)
	require.Equal(t, uint32(0), off)
}

func TestRunPass1_DuplicateLabelIsError(t *testing.T) {
	_, _, err := runPass1(t, Config{}, ".text\nfoo:\nfoo:\n")
	require.Error(t, err)
}

func TestRunPass1_InstructionBeforeSectionIsError(t *testing.T) {
	_, _, err := runPass1(t, Config{}, "add r1, r2, r3\n")
	require.Error(t, err)
}

func TestRunPass1_MisalignedInstructionIsError(t *testing.T) {
	_, _, err := runPass1(t, Config{}, ".text\n.filb 1\n  add r1, r2, r3\n")
	require.Error(t, err)
}

func TestRunPass1_AlignAdvancesToBoundary(t *testing.T) {
	asm, _, err := runPass1(t, Config{}, ".text\n.filb 1\n.align 4\nhere:\n  add r1, r2, r3\n")
	require.NoError(t, err)
	// 1 byte of .filb, 3 bytes of padding to the boundary, then one 4-byte instruction.
	require.Equal(t, uint32(8), asm.Sections.Offset[TEXT])
}

func TestRunPass1_OriginRequiresKernelMode(t *testing.T) {
	_, _, err := runPass1(t, Config{IsKernel: false}, ".origin 0x1000\n")
	require.Error(t, err)
}

func TestRunPass1_OriginCannotGoBackwards(t *testing.T) {
	_, _, err := runPass1(t, Config{IsKernel: true}, ".origin 0x1000\n.origin 0x10\n")
	require.Error(t, err)
}

func TestRunPass1_FillForbiddenInBss(t *testing.T) {
	_, _, err := runPass1(t, Config{}, ".bss\n.fill 1\n")
	require.Error(t, err)
}

func TestRunPass1_DefineResolvesToLiteral(t *testing.T) {
	_, file, err := runPass1(t, Config{}, ".define SIZE 4\n")
	require.NoError(t, err)
	e, ok := file.Defines.Get("SIZE")
	require.True(t, ok)
	require.Equal(t, uint64(4), e.Value)
}

func TestRunPass1_DuplicateDefineIsError(t *testing.T) {
	_, _, err := runPass1(t, Config{}, ".define N 1\n.define N 2\n")
	require.Error(t, err)
}

func TestRunPass1_GlobalForwardDeclarationIsUndefined(t *testing.T) {
	_, file, err := runPass1(t, Config{}, ".global later\n")
	require.NoError(t, err)
	require.True(t, file.Globals.Contains("later"))
	e, ok := file.Labels.Get("later")
	require.True(t, ok)
	require.False(t, e.IsDefined)
}

func TestFinalizeLayout_SectionBasesAndEntry(t *testing.T) {
	asm, files, err := assembleFixture(t, Config{}, []string{
		".text\n_start:\n  add r1, r2, r3\n.global _start\n",
	})
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000000), asm.Sections.Base[TEXT])
	e, ok := asm.Global.Get("_start")
	require.True(t, ok)
	require.Equal(t, uint64(0x80000000), e.Value)
	_ = files
}

// assembleFixture runs Pass 1 and FinalizeLayout (but not Pass 2) over the
// given file texts, returning the live Assembler for inspection.
func assembleFixture(t *testing.T, cfg Config, texts []string) (*Assembler, []*FileSymbols, error) {
	t.Helper()
	diag := NewDiagnostics(false)
	asm := NewAssembler(cfg, diag)
	files := make([]*FileSymbols, len(texts))
	asm.resetTraversal()
	for i, text := range texts {
		files[i] = NewFileSymbols()
		buf := NewBuffer("t.s", []byte(text))
		if err := RunPass1(asm, buf, i, files[i]); err != nil {
			return asm, files, err
		}
	}
	_, err := FinalizeLayout(asm, files)
	return asm, files, err
}
