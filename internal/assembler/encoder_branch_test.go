// Completion: 100% - Branch encoder tests
package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeBranchImm_PCRelative(t *testing.T) {
	// S3 (spec.md sec.8): "start: nop / br start", nop at pc=0, br at pc=4.
	// imm = (0 - 4 - 4) >> 2 = -2, encoded in 22 bits as 0x3FFFFE.
	w, err := EncodeBranchImm(CondR, -8)
	require.NoError(t, err)
	require.Equal(t, uint32(0x3FFFFE), w&0x3FFFFF)
}

func TestEncodeBranchImm_RequiresWordAlignment(t *testing.T) {
	_, err := EncodeBranchImm(CondR, 6)
	require.Error(t, err)
}

func TestEncodeBranchImm_RangeLimit(t *testing.T) {
	_, err := EncodeBranchImm(CondR, 1<<23)
	require.Error(t, err)
}

func TestEncodeBranchRegAbs_JmpForm(t *testing.T) {
	w, err := EncodeBranchRegAbs(CondR, 0, 29)
	require.NoError(t, err)
	require.Equal(t, uint32(OpBrRegAb), w>>27)
	require.Equal(t, uint32(29), w&0x1F)
}

func TestEncodeSyscallExit(t *testing.T) {
	w := EncodeSyscallExit()
	require.Equal(t, uint32(OpSyscall), w>>27)
}

func TestEncodeADPC_RangeLimit(t *testing.T) {
	_, err := EncodeADPC(1, 1<<21)
	require.Error(t, err)
	_, err = EncodeADPC(1, (1<<21)-1)
	require.NoError(t, err)
}
