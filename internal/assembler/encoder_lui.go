// Completion: 100% - LUI encoder complete
package assembler

import "fmt"

// EncodeLUI encodes "lui rA, value" (opcode 2). The 22-bit immediate field
// holds bits [31:10] of a 32-bit value whose low 10 bits must be zero
// (spec.md sec.4.C): word = opcode(5) | rA(5) | imm(22), where
// imm = value >> 10.
func EncodeLUI(rA int, value uint32) (uint32, error) {
	if value&0x3FF != 0 {
		return 0, fmt.Errorf("lui operand 0x%x has non-zero low 10 bits", value)
	}
	word := setField(0, uint32(OpLUI), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, value>>10, 22, 0)
	return word, nil
}
