// Completion: 100% - Memory encoder tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeMemAbsolute_ShiftClassSelection(t *testing.T) {
	w, err := EncodeMemAbsolute(MemWord, true, 1, 2, ModeOffset, 8)
	require.NoError(t, err)
	require.Equal(t, memOpcode(MemAbsolute, MemWord), w>>27)
}

func TestEncodeMemAbsolute_OutOfRange(t *testing.T) {
	_, err := EncodeMemAbsolute(MemWord, true, 1, 2, ModeOffset, 2049)
	require.Error(t, err, "an odd offset beyond the signed 12-bit range cannot be scaled by any of the legal shifts")
}

func TestEncodeMemRelativeReg_SignedRange(t *testing.T) {
	_, err := EncodeMemRelativeReg(MemWord, false, 1, 2, 32767)
	require.NoError(t, err)
	_, err = EncodeMemRelativeReg(MemWord, false, 1, 2, 32768)
	require.Error(t, err)
}

func TestEncodeMemLongRelative_SignedRange(t *testing.T) {
	_, err := EncodeMemLongRelative(MemWord, true, 1, (1<<20)-1)
	require.NoError(t, err)
	_, err = EncodeMemLongRelative(MemWord, true, 1, 1<<20)
	require.Error(t, err)
}

func TestMemMnemonics_RequiresBaseOnlyOnAbsoluteForms(t *testing.T) {
	require.True(t, MemMnemonics["lwa"].RequiresBase)
	require.False(t, MemMnemonics["lw"].RequiresBase)
	require.True(t, MemMnemonics["swa"].Load == false)
	require.True(t, MemMnemonics["lwa"].Load)
}
