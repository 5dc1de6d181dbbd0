// Completion: 100% - Memory family encoder complete
package assembler

import "fmt"

// MemWidth selects the memory access width (spec.md sec.4.C: "three widths
// x three addressing forms").
type MemWidth int

const (
	MemWord MemWidth = 0
	MemHalf MemWidth = 1
	MemByte MemWidth = 2
)

// MemForm selects the addressing form.
type MemForm int

const (
	// MemAbsolute is "[rb, imm]" / "[rb, imm]!" / "[rb], imm": a base
	// register plus a compact shifted immediate and a 2-bit mode.
	MemAbsolute MemForm = iota
	// MemRelativeReg is "[rb, imm]" with an unsuffixed mnemonic and a
	// signed 16-bit immediate.
	MemRelativeReg
	// MemLongRelative is "[imm]" (no base register), PC-relative, with a
	// signed 21-bit immediate.
	MemLongRelative
)

// MemMode is the 2-bit addressing mode of the absolute form.
type MemMode int

const (
	ModeOffset       MemMode = 0 // [rb, imm]   (rb unmodified)
	ModePreIncrement MemMode = 1 // [rb, imm]!  (rb += imm, then access)
	ModePostIncr     MemMode = 2 // [rb], imm   (access, then rb += imm)
)

// memOpcode computes the 5-bit opcode for a (form, width) pair: opcode =
// form_base + 3*width, where form_base in {3 (absolute), 4 (relative-reg),
// 5 (long-relative)} (spec.md sec.4.C, "opcodes 3..11").
func memOpcode(form MemForm, width MemWidth) uint32 {
	formBase := uint32(3)
	switch form {
	case MemAbsolute:
		formBase = 3
	case MemRelativeReg:
		formBase = 4
	case MemLongRelative:
		formBase = 5
	}
	return formBase + 3*uint32(width)
}

// encodeAbsoluteImm searches shift amounts {0,1,2,3} for one at which
// offset is evenly divisible and the scaled result fits the 12-bit signed
// value field, returning (shift, value) separately (spec.md sec.4.C,
// "12-bit value shifted by {0,1,2,3} with sign-extension check on upper
// bits").
func encodeAbsoluteImm(offset int64) (shift uint32, value uint32, ok bool) {
	for s := uint(0); s < 4; s++ {
		if offset&((1<<s)-1) != 0 {
			continue
		}
		scaled := offset >> s
		if fitsSigned(scaled, 12) {
			return uint32(s), encodeSigned(scaled, 12), true
		}
	}
	return 0, 0, false
}

// EncodeMemAbsolute encodes "[rb, imm]" family loads/stores (opcodes
// 3,6,9): opcode[31:27] rA[26:22] rB[21:17] L[16] mode[15:14] shift[13:12]
// value[11:0].
func EncodeMemAbsolute(width MemWidth, load bool, rA, rB int, mode MemMode, offset int64) (uint32, error) {
	shift, value, ok := encodeAbsoluteImm(offset)
	if !ok {
		return 0, errImmRange("mem", offset, "not representable as a 12-bit value shifted by 0..3")
	}
	word := setField(0, memOpcode(MemAbsolute, width), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	word = setField(word, boolBit(load), 1, 16)
	word = setField(word, uint32(mode), 2, 14)
	word = setField(word, shift, 2, 12)
	word = setField(word, value, 12, 0)
	return word, nil
}

// EncodeMemRelativeReg encodes "[rb, imm]" family loads/stores (opcodes
// 4,7,10): opcode[31:27] rA[26:22] rB[21:17] L[16] imm[15:0] signed.
func EncodeMemRelativeReg(width MemWidth, load bool, rA, rB int, offset int64) (uint32, error) {
	if !fitsSigned(offset, 16) {
		return 0, errImmRange("mem", offset, "must fit in signed 16 bits")
	}
	word := setField(0, memOpcode(MemRelativeReg, width), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	word = setField(word, boolBit(load), 1, 16)
	word = setField(word, encodeSigned(offset, 16), 16, 0)
	return word, nil
}

// EncodeMemLongRelative encodes "[imm]" family loads/stores (opcodes
// 5,8,11), PC-relative with no base register: opcode[31:27] rA[26:22]
// L[21] imm[20:0] signed (spec.md sec.4.C: "Load bit... bit 21 for the
// long-relative form").
func EncodeMemLongRelative(width MemWidth, load bool, rA int, pcRelOffset int64) (uint32, error) {
	if !fitsSigned(pcRelOffset, 21) {
		return 0, errImmRange("mem", pcRelOffset, "must fit in signed 21 bits")
	}
	word := setField(0, memOpcode(MemLongRelative, width), 5, 27)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, boolBit(load), 1, 21)
	word = setField(word, encodeSigned(pcRelOffset, 21), 21, 0)
	return word, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func memMnemonic(width MemWidth, load, absolute bool) string {
	op := "s"
	if load {
		op = "l"
	}
	switch width {
	case MemWord:
		op += "w"
	case MemHalf:
		op += "d"
	case MemByte:
		op += "b"
	default:
		return fmt.Sprintf("%s?", op)
	}
	if absolute {
		op += "a"
	}
	return op
}

// MemMnemonicInfo is one entry of MemMnemonics.
type MemMnemonicInfo struct {
	Width MemWidth
	Load  bool
	// RequiresBase is true for the "a"-suffixed absolute-form mnemonics
	// (swa/lwa, sda/lda, sba/lba), which always take a base register.
	// The unsuffixed mnemonics (sw/lw, sd/ld, sb/lb) resolve to
	// MemRelativeReg when the operand syntax supplies a base register
	// and to MemLongRelative when it does not (spec.md sec.4.C; the
	// reference assembler's consume_mem dispatches identically on
	// whether "[" is followed by a register).
	RequiresBase bool
}

// MemMnemonics maps every load/store mnemonic ("lw", "swa", "lb", ...) to
// its width, direction, and addressing-form constraint, for the parser in
// pass2.go.
var MemMnemonics = func() map[string]MemMnemonicInfo {
	m := map[string]MemMnemonicInfo{}
	for _, w := range []MemWidth{MemWord, MemHalf, MemByte} {
		for _, l := range []bool{true, false} {
			m[memMnemonic(w, l, false)] = MemMnemonicInfo{w, l, false}
			m[memMnemonic(w, l, true)] = MemMnemonicInfo{w, l, true}
		}
	}
	return m
}()
