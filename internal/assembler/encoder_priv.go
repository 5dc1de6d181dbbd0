// Completion: 100% - Privileged family encoder complete
package assembler

import "fmt"

// PrivSub selects the privileged sub-operation, a 3-bit field at [14:12]
// (widened from spec.md's nominal 2-bit [13:12] to fit the five documented
// values 0..4).
type PrivSub uint32

const (
	PrivTLB  PrivSub = 0
	PrivCRMV PrivSub = 1
	PrivMode PrivSub = 2
	PrivRFE  PrivSub = 3
	PrivIPI  PrivSub = 4
)

// TLBOp selects the TLB maintenance operation: tlbr/tlbw take two
// registers, tlbc takes none.
type TLBOp uint32

const (
	TLBRead  TLBOp = 0
	TLBWrite TLBOp = 1
	TLBClear TLBOp = 2
)

// EncodeTLB encodes "tlbr rA, rB" / "tlbw rA, rB" / "tlbc" (opcode 31, sub
// TLB): opcode[31:27] sub[14:12] rA[26:22] rB[21:17], with bit 11 marking
// tlbc and bit 10 marking tlbw (tlbr leaves both clear), mirroring the
// reference assembler's tlb_op dispatch.
func EncodeTLB(op TLBOp, rA, rB int) uint32 {
	word := setField(0, uint32(OpPriv), 5, 27)
	word = setField(word, uint32(PrivTLB), 3, 12)
	if op == TLBClear {
		return setField(word, 1, 1, 11)
	}
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	if op == TLBWrite {
		word = setField(word, 1, 1, 10)
	}
	return word
}

// CRMVKind selects which of rA/rB is a control register.
type CRMVKind uint32

const (
	CRMVCtrlToReg  CRMVKind = 5 // crmv rA, crB  (rA general, rB control)
	CRMVRegToCtrl  CRMVKind = 4 // crmv crA, rB  (rA control, rB general)
	CRMVCtrlToCtrl CRMVKind = 6 // crmv crA, crB (both control)
)

// EncodeCRMV encodes a move between general and control registers (opcode
// 31, sub crmv): opcode[31:27] sub[14:12] kind[12:10] rA[26:22] rB[21:17].
// kind's value always carries the sub-field's own bit (sub=1 contributes
// bit 12, matched by every CRMVKind value), following the reference
// assembler's consume_crmv bit packing exactly.
func EncodeCRMV(kind CRMVKind, rA, rB int) uint32 {
	word := setField(0, uint32(OpPriv), 5, 27)
	word = setField(word, uint32(PrivCRMV), 3, 12)
	word = setField(word, uint32(kind), 3, 10)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	return word
}

// ModeSelector selects the "mode" instruction's target power state.
type ModeSelector uint32

const (
	ModeRun   ModeSelector = 0
	ModeSleep ModeSelector = 1
	ModeHalt  ModeSelector = 2
)

// EncodeMode encodes "mode run/sleep/halt" (opcode 31, sub mode): no
// register operands. opcode[31:27] sub[14:12] sel[11:10].
func EncodeMode(sel ModeSelector) uint32 {
	word := setField(0, uint32(OpPriv), 5, 27)
	word = setField(word, uint32(PrivMode), 3, 12)
	word = setField(word, uint32(sel), 2, 10)
	return word
}

// EncodeRFE encodes "rfe rA, rB" / "rfi rA, rB" (return from
// exception/interrupt), two plain registers whose use is left to the
// trap-handling convention. opcode[31:27] sub[14:12] kind[0] rA[26:22]
// rB[21:17]. "rfi" (bit 0 set) is a spec-only addition the reference
// assembler does not have; see DESIGN.md.
func EncodeRFE(isInterrupt bool, rA, rB int) uint32 {
	word := setField(0, uint32(OpPriv), 5, 27)
	word = setField(word, uint32(PrivRFE), 3, 12)
	word = setField(word, boolBit(isInterrupt), 1, 0)
	word = setField(word, uint32(rA), 5, 22)
	word = setField(word, uint32(rB), 5, 17)
	return word
}

// EncodeIPI encodes "ipi rA": sends an inter-processor interrupt to the
// target id held in rA. Spec-only addition, not present in the reference
// assembler; see DESIGN.md. opcode[31:27] sub[14:12] rA[26:22].
func EncodeIPI(rA int) uint32 {
	word := setField(0, uint32(OpPriv), 5, 27)
	word = setField(word, uint32(PrivIPI), 3, 12)
	word = setField(word, uint32(rA), 5, 22)
	return word
}

// IsPrivileged reports whether word's opcode field is the privileged
// opcode. pass2.go does not call it: it enforces "privileged instruction
// without kernel mode" by mnemonic, in checkPrivileged.
func IsPrivileged(word uint32) bool {
	return (word>>27)&0x1F == uint32(OpPriv)
}

func privMnemonicError(name string) error {
	return fmt.Errorf("unknown privileged mnemonic %q", name)
}
