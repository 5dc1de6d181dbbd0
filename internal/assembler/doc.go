// Completion: 100% - Package overview
// Package assembler implements the Dioptase two-pass assembler: a
// preprocessor, a layout pass, an emit pass, and the two image writers
// (ELF32 for user mode, raw hex for kernel mode).
//
// Kernel-mode programs are expected to place their own interrupt vector
// table at a fixed origin via .origin; this package treats that region
// as ordinary instruction/data bytes and does not special-case, validate,
// or reproduce any particular IVT layout. Host tooling that needs to
// reason about vector slots should do so on top of the resolved label
// list, not inside this package.
package assembler
