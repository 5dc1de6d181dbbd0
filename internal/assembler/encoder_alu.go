// Completion: 100% - ALU family encoder complete
package assembler

import "fmt"

// EncodeALURegister encodes the register form (opcode 0): rA, rB, rC are
// 5-bit register numbers; aluOp selects the sub-operation at bits[9:5].
// Unary ops (not, sxtb, sxtd, tncb, tncd) pass rB=0; the caller enforces
// that via the parser, this function just packs what it is given.
func EncodeALURegister(aluOp, rA, rB, rC int) (uint32, error) {
	if aluOp < 0 || aluOp > 21 {
		return 0, fmt.Errorf("unknown ALU sub-operation %d", aluOp)
	}
	word := setField(0, uint32(OpALUReg), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	word = setField(word, uint32(aluOp), 5, 5)
	word = setField(word, uint32(rC), 5, 0)
	return word, nil
}

// EncodeALUImmediate encodes the immediate form (opcode 1). The shape of
// the 12-bit immediate field depends on aluOp's class (spec.md sec.4.C):
//
//	bitwise (0..6):    imm must be an 8-bit value shifted by {0,8,16,24}
//	shift   (7..13):   imm in [0,31)
//	arithmetic(14..17): signed 12-bit, two's complement
//	unary   (18..21):   rB packed as given (the parser passes 0), imm field unused (zero)
func EncodeALUImmediate(aluOp, rA, rB int, imm int64) (uint32, error) {
	word := setField(0, uint32(OpALUImm), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	word = setField(word, uint32(aluOp), 5, 12)

	var immField uint32
	switch aluClass(aluOp) {
	case "bitwise":
		packed, ok := encodeBitwiseImm(imm)
		if !ok {
			return 0, errImmRange(aluMnemonic(aluOp), imm, "not representable as an 8-bit value shifted by 0, 8, 16 or 24")
		}
		immField = packed
	case "shift":
		if imm < 0 || imm >= 31 {
			return 0, errImmRange(aluMnemonic(aluOp), imm, "shift amount must be in [0, 31)")
		}
		immField = uint32(imm)
	case "arithmetic":
		if !fitsSigned(imm, 12) {
			return 0, errImmRange(aluMnemonic(aluOp), imm, "must fit in signed 12 bits")
		}
		immField = encodeSigned(imm, 12)
	case "unary":
		immField = 0
	default:
		return 0, fmt.Errorf("unknown ALU sub-operation %d", aluOp)
	}
	return setField(word, immField, 12, 0), nil
}

// encodeBitwiseImm searches the four legal shift amounts for one at which
// imm is exactly an 8-bit value shifted into place, returning the packed
// "byte | (shift_idx << 8)" field.
func encodeBitwiseImm(imm int64) (uint32, bool) {
	if imm < 0 {
		return 0, false
	}
	shifts := [4]uint{0, 8, 16, 24}
	for idx, shift := range shifts {
		if uint64(imm)&^(uint64(0xFF)<<shift) == 0 {
			b := uint32(uint64(imm) >> shift)
			return b | (uint32(idx) << 8), true
		}
	}
	return 0, false
}

func aluMnemonic(op int) string {
	switch op {
	case AluAnd:
		return "and"
	case AluNand:
		return "nand"
	case AluOr:
		return "or"
	case AluNor:
		return "nor"
	case AluXor:
		return "xor"
	case AluXnor:
		return "xnor"
	case AluNot:
		return "not"
	case AluLsl:
		return "lsl"
	case AluLsr:
		return "lsr"
	case AluAsr:
		return "asr"
	case AluRotl:
		return "rotl"
	case AluRotr:
		return "rotr"
	case AluLslc:
		return "lslc"
	case AluLsrc:
		return "lsrc"
	case AluAdd:
		return "add"
	case AluAddc:
		return "addc"
	case AluSub:
		return "sub"
	case AluSubb:
		return "subb"
	case AluSxtb:
		return "sxtb"
	case AluSxtd:
		return "sxtd"
	case AluTncb:
		return "tncb"
	case AluTncd:
		return "tncd"
	default:
		return "?"
	}
}

// AluMnemonics maps every ALU mnemonic recognized by the parser (pass2.go)
// to its sub-operation index, including "cmp" as an alias for "sub" with
// the destination register forced to 0.
var AluMnemonics = map[string]int{
	"and": AluAnd, "nand": AluNand, "or": AluOr, "nor": AluNor, "xor": AluXor, "xnor": AluXnor, "not": AluNot,
	"lsl": AluLsl, "lsr": AluLsr, "asr": AluAsr, "rotl": AluRotl, "rotr": AluRotr, "lslc": AluLslc, "lsrc": AluLsrc,
	"add": AluAdd, "addc": AluAddc, "sub": AluSub, "subb": AluSubb,
	"sxtb": AluSxtb, "sxtd": AluSxtd, "tncb": AluTncb, "tncd": AluTncd,
	"cmp": AluCmp,
}

// AluIsUnary reports whether mnemonic takes a single source register (plus
// destination), forcing rB to 0.
func AluIsUnary(op int) bool {
	return op == AluNot || op == AluSxtb || op == AluSxtd || op == AluTncb || op == AluTncd
}
