// Completion: 100% - Preprocessor tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func preprocess(t *testing.T, text string, isFirstFile, hasStart bool) string {
	t.Helper()
	diag := NewDiagnostics(false)
	buf := NewBuffer("t.s", []byte(text))
	out, err := Preprocess(buf, 0, diag, isFirstFile, hasStart)
	require.NoError(t, err)
	return out.Slice(0, out.Len())
}

func TestPreprocess_Idempotence(t *testing.T) {
	// Invariant 6 (spec.md sec.8): a file with no macros and no comments
	// preprocesses to a byte-identical buffer.
	text := "add r1, r2, r3\nlw r4, [r5, 8]\n"
	require.Equal(t, text, preprocess(t, text, false, false))
}

func TestPreprocess_StripsComments(t *testing.T) {
	out := preprocess(t, "add r1, r2, r3 # trailing comment\n", false, false)
	require.Equal(t, "add r1, r2, r3 \n", out)
}

func TestPreprocess_ExpandsNopAndRet(t *testing.T) {
	require.Equal(t, "and r0, r0, r0", preprocess(t, "nop", false, false))
	require.Equal(t, "jmp r29", preprocess(t, "ret", false, false))
}

func TestPreprocess_ExpandsPushPop(t *testing.T) {
	require.Equal(t, "swa r1, [sp, -4]!", preprocess(t, "push r1", false, false))
	require.Equal(t, "lwa r1, [sp], 4", preprocess(t, "pop r1", false, false))
}

func TestPreprocess_ExpandsMovi(t *testing.T) {
	out := preprocess(t, "movi r1, main", false, false)
	require.Equal(t, "movu r1, main\n  movl r1, main", out)
}

func TestPreprocess_ExpandsMovRegToReg(t *testing.T) {
	out := preprocess(t, "mov r1, r2", false, false)
	require.Equal(t, "add r1, r2, r0", out)
}

func TestPreprocess_ExpandsCall(t *testing.T) {
	out := preprocess(t, "call target", false, false)
	require.Equal(t, "movu r29, target\n  movl r29, target\n  br r29, r29", out)
}

func TestPreprocess_PrependsEntryThunkOnlyForFirstFileWithStart(t *testing.T) {
	withThunk := preprocess(t, "add r1, r2, r3", true, true)
	require.Contains(t, withThunk, "movu r29, _start")
	require.Contains(t, withThunk, "br r29, r29")

	withoutThunk := preprocess(t, "add r1, r2, r3", false, true)
	require.NotContains(t, withoutThunk, "_start")
}
