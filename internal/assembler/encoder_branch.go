// Completion: 100% - Branch family and ADPC encoder complete
package assembler

// EncodeBranchImm encodes a PC-relative conditional branch (opcode 12):
// opcode[31:27] cond[26:22] imm[21:0]. byteOffset must be a multiple of 4;
// it is stored word-scaled (offset/4) to reach a 24-bit effective range
// from a 22-bit field (spec.md sec.4.C, "PC-relative 24-bit range stored
// in 22 bits"). "jmp" is this form with cond = CondR.
func EncodeBranchImm(cond int, byteOffset int64) (uint32, error) {
	if byteOffset%4 != 0 {
		return 0, errImmRange("branch", byteOffset, "target must be word-aligned")
	}
	scaled := byteOffset / 4
	if !fitsSigned(scaled, 22) {
		return 0, errImmRange("branch", byteOffset, "out of PC-relative range")
	}
	word := setField(0, uint32(OpBrImm), 5, 27)
	word = setField(word, uint32(cond), 5, 22)
	word = setField(word, encodeSigned(scaled, 22), 22, 0)
	return word, nil
}

// EncodeBranchRegAbs encodes a register-indirect absolute branch (opcode
// 13), "b<cond> rA, rB" (rA defaults to 0 when only one register is
// given, with that register taken as rB): opcode[31:27] cond[26:22]
// rA[9:5] rB[4:0]. "jmp rB" is this form with cond=CondR, rA=0.
func EncodeBranchRegAbs(cond, rA, rB int) (uint32, error) {
	word := setField(0, uint32(OpBrRegAb), 5, 27)
	word = setField(word, uint32(cond), 5, 22)
	word = setField(word, uint32(rA), 5, 5)
	word = setField(word, uint32(rB), 5, 0)
	return word, nil
}

// EncodeBranchRegRel encodes a register-indirect PC-relative branch
// (opcode 14), "b<cond> rA, rB": opcode[31:27] cond[26:22] rA[9:5]
// rB[4:0].
func EncodeBranchRegRel(cond, rA, rB int) (uint32, error) {
	word := setField(0, uint32(OpBrRegRl), 5, 27)
	word = setField(word, uint32(cond), 5, 22)
	word = setField(word, uint32(rA), 5, 5)
	word = setField(word, uint32(rB), 5, 0)
	return word, nil
}

// OpSyscall is "sys EXIT" (opcode 15), the lone syscall form: no operand
// fields, not privilege-gated.
const OpSyscall Opcode = 15

// EncodeSyscallExit encodes "sys EXIT".
func EncodeSyscallExit() uint32 {
	return setField(0, uint32(OpSyscall), 5, 27)
}

// EncodeADPC encodes "adpc rA, imm" (opcode 22): rA = PC + imm, byte
// precise (not word-scaled) (spec.md sec.4.C). opcode[31:27]
// rA[26:22] imm[21:0] signed.
func EncodeADPC(rA int, byteOffset int64) (uint32, error) {
	if !fitsSigned(byteOffset, 22) {
		return 0, errImmRange("adpc", byteOffset, "must fit in signed 22 bits")
	}
	word := setField(0, uint32(OpADPC), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, encodeSigned(byteOffset, 22), 22, 0)
	return word, nil
}

// CondMnemonics maps every branch mnemonic to its Condition code. Each
// also has an "a"-suffixed absolute-form variant (bra, bza, ...) sharing
// the same condition but selecting EncodeBranchRegAbs over
// EncodeBranchRegRel when the operand is a register; "jmp" is "br" with
// an implicit register operand and CondR.
var CondMnemonics = map[string]int{
	"br": CondR, "bz": CondZ, "bnz": CondNZ, "bs": CondS, "bns": CondNS,
	"bc": CondC, "bnc": CondNC, "bo": CondO, "bno": CondNO,
	"bps": CondPS, "bnps": CondNPS, "bg": CondG, "bge": CondGE,
	"bl": CondL, "ble": CondLE, "ba": CondA, "bae": CondAE,
	"bb": CondB, "bbe": CondBE,
}
