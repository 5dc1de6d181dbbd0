// Completion: 100% - Atomic family encoder complete
package assembler

// Atomic opcodes. Only the four mnemonics spec.md sec.4.C names explicitly
// (fada, fad, swpa, swp) are assigned; 20 and 21 are left unallocated
// within the documented 16..21 range (see DESIGN.md).
const (
	OpFadaAbs Opcode = 16 // fada rA, [rB, rC], imm   -- fetch-add, absolute form
	OpFadLong Opcode = 17 // fad  rA, rC, imm          -- fetch-add, long-relative form
	OpSwpaAbs Opcode = 18 // swpa rA, [rB, rC], imm    -- swap, absolute form
	OpSwpLong Opcode = 19 // swp  rA, rC, imm          -- swap, long-relative form
)

// EncodeAtomicAbs encodes the absolute form of fada/swpa: a memory address
// formed from base register rB plus a short 12-bit immediate, and rC holds
// the value to add/swap in; rA receives the memory's prior value.
// opcode[31:27] rA[26:22] rB[21:17] rC[16:12] imm[11:0] signed.
func EncodeAtomicAbs(op Opcode, rA, rB, rC int, imm int64) (uint32, error) {
	if !fitsSigned(imm, 12) {
		return 0, errImmRange("atomic", imm, "must fit in signed 12 bits")
	}
	word := setField(0, uint32(op), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	word = setField(word, uint32(rC), 5, 12)
	word = setField(word, encodeSigned(imm, 12), 12, 0)
	return word, nil
}

// EncodeAtomicLong encodes the long-relative form of fad/swp: no base
// register, a wider 17-bit immediate forms the PC-relative address,
// rC holds the value to add/swap in, rA receives the prior value.
// opcode[31:27] rA[26:22] rC[21:17] imm[16:0] signed.
func EncodeAtomicLong(op Opcode, rA, rC int, imm int64) (uint32, error) {
	if !fitsSigned(imm, 17) {
		return 0, errImmRange("atomic", imm, "must fit in signed 17 bits")
	}
	word := setField(0, uint32(op), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rC), 5, 17)
	word = setField(word, encodeSigned(imm, 17), 17, 0)
	return word, nil
}

// AtomicMnemonics maps mnemonic to (opcode, isAbsoluteForm).
var AtomicMnemonics = map[string]struct {
	Op       Opcode
	Absolute bool
}{
	"fada": {OpFadaAbs, true},
	"fad":  {OpFadLong, false},
	"swpa": {OpSwpaAbs, true},
	"swp":  {OpSwpLong, false},
}
