// Completion: 100% - movu/movl pseudo-instruction expansion complete
package assembler

// The movu/movl pseudo pair loads a 32-bit value into a register across
// two real instructions (spec.md sec.4.C, sec.4.D): movu is "lui rA,
// value &^ 0x3FF", movl is "add rA, rA, value & 0x3FF". Both halves come
// from the *same* resolved value; the only question is what that value
// is relative to.
//
// For a constant operand (one that resolves in local_defines) the value
// is used as-is. For a label operand, the pair targets two adjacent
// instruction words rather than one, so movu's value is biased by -8 and
// movl's by -4 before splitting — the same correction applied to every
// PC-relative operand elsewhere in the encoder (sec.4.C, "PC-relative
// operand resolution uses imm = target - (pc + 4)"), doubled for movu
// since it sits one instruction further from the pair's second half.
const (
	labelBiasMovu = 8
	labelBiasMovl = 4
)

// SplitUpperLower splits a 32-bit value into the pieces movu and movl
// need: upper = value with its low 10 bits cleared, lower = value's low
// 10 bits.
func SplitUpperLower(value uint32) (upper uint32, lower uint32) {
	return value &^ 0x3FF, value & 0x3FF
}

// EncodeMovu emits the movu half of a pair: "lui rA, value &^ 0x3FF". For
// a label operand, pass value-8 (wrapped to uint32) as adjustedValue.
func EncodeMovu(rA int, adjustedValue uint32) (uint32, error) {
	upper, _ := SplitUpperLower(adjustedValue)
	return EncodeLUI(rA, upper)
}

// EncodeMovl emits the movl half of a pair: an ALU-immediate add of
// adjustedValue's low 10 bits into rA.
func EncodeMovl(rA int, adjustedValue uint32) (uint32, error) {
	_, lower := SplitUpperLower(adjustedValue)
	return EncodeALUImmediate(AluAdd, rA, rA, int64(lower))
}

// MovuLabelValue computes the biased value movu encodes for a label
// operand: labelAddr - 8.
func MovuLabelValue(labelAddr uint32) uint32 { return labelAddr - labelBiasMovu }

// MovlLabelValue computes the biased value movl encodes for a label
// operand: labelAddr - 4.
func MovlLabelValue(labelAddr uint32) uint32 { return labelAddr - labelBiasMovl }
