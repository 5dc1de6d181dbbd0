// Completion: 100% - End-to-end assembler tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func assembleSources(t *testing.T, cfg Config, texts ...string) (*Program, error) {
	t.Helper()
	diag := NewDiagnostics(false)
	files := make([]SourceFile, len(texts))
	for i, text := range texts {
		files[i] = SourceFile{Path: "f" + string(rune('0'+i)) + ".s", Text: []byte(text)}
	}
	return Assemble(cfg, diag, files)
}

func TestAssemble_PCRelativeBranch(t *testing.T) {
	// S3 (spec.md sec.8): "start: nop / br start" -> encoded immediate
	// (0 - 4 - 4) / 4 = -2, stored as 0x3FFFFE in the low 22 bits.
	prog, err := assembleSources(t, Config{IsKernel: true}, "start:\n  nop\n  br start\n")
	require.NoError(t, err)
	require.Len(t, prog.KernelNodes, 1)
	words := prog.KernelNodes[0].Words()
	require.Len(t, words, 2)
	require.Equal(t, uint32(0x3FFFFE), words[1]&0x3FFFFF)
}

func TestAssemble_CrossFileGlobal(t *testing.T) {
	// S4 (spec.md sec.8): file A references "main" before it is defined in
	// file B; main must resolve to base[TEXT] + size_of(A's text).
	fileA := ".text\n.global _start\n_start:\n.global main\n  br main\n"
	fileB := ".text\nmain:\n  ret\n"
	prog, err := assembleSources(t, Config{}, fileA, fileB)
	require.NoError(t, err)

	var main LabelEntry
	found := false
	for _, l := range prog.Labels {
		if l.Name == "main" {
			main, found = l, true
		}
	}
	require.True(t, found)
	require.Equal(t, prog.Sections.Base[TEXT]+4, main.Addr, "A's .text is one instruction (br) = 4 bytes")
}

func TestAssemble_DuplicateGlobalSymbolFails(t *testing.T) {
	// S6 (spec.md sec.8).
	fileA := ".text\n.global foo\nfoo:\n  nop\n"
	fileB := ".text\n.global foo\nfoo:\n  nop\n"
	_, err := assembleSources(t, Config{}, fileA, fileB)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Duplicate global label")
}

func TestAssemble_EntryPointIsStartAddress(t *testing.T) {
	// Invariant 4 (spec.md sec.8): e_entry == value_of('_start').
	prog, err := assembleSources(t, Config{}, ".text\n.global _start\n_start:\n  nop\n")
	require.NoError(t, err)
	require.Equal(t, prog.Sections.Base[TEXT], prog.EntryPoint)
}

func TestAssemble_MissingStartFailsInUserMode(t *testing.T) {
	_, err := assembleSources(t, Config{}, ".text\n  nop\n")
	require.Error(t, err)
}

func TestAssemble_SectionBasesAndSizesAreAligned(t *testing.T) {
	// Invariant 3 (spec.md sec.8).
	prog, err := assembleSources(t, Config{}, ".text\n.global _start\n_start:\n  nop\n.rodata\n.filb 1\n.data\n.fill 1\n")
	require.NoError(t, err)
	require.Equal(t, uint32(0), prog.Sections.Base[RODATA]%0x1000)
	require.Equal(t, uint32(0), prog.Sections.Base[DATA]%0x1000)
	require.Equal(t, uint32(0), prog.Sections.Size[TEXT]%4)
	require.Equal(t, uint32(0), prog.Sections.Size[RODATA]%4)
	require.Equal(t, uint32(0), prog.Sections.Size[DATA]%4)
}

func TestAssemble_TraversalPersistsAcrossFiles(t *testing.T) {
	// A file that never re-issues .text after file 0 should still be
	// treated as being in .text (spec.md sec.4.F: "exiting a file leaves
	// the section intact for the next file").
	fileA := ".text\n.global _start\n_start:\n  nop\n"
	fileB := "  nop\n"
	prog, err := assembleSources(t, Config{}, fileA, fileB)
	require.NoError(t, err)
	require.Equal(t, uint32(8), prog.Sections.Size[TEXT])
}

func TestAssemble_KernelPCIsContinuousAcrossFiles(t *testing.T) {
	fileA := "  nop\n  nop\n"
	fileB := "  nop\n"
	prog, err := assembleSources(t, Config{IsKernel: true}, fileA, fileB)
	require.NoError(t, err)
	require.Len(t, prog.KernelNodes, 1)
	require.Len(t, prog.KernelNodes[0].Words(), 3)
}
