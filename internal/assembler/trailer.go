// Completion: 100% - Debug trailer writer complete
package assembler

import (
	"fmt"
	"strings"
)

// WriteDebugTrailer renders the optional debug trailer (spec.md sec.4.G):
// "#label"/"#data" lines from the label list, then "#line"/"#local" lines
// from the debug log, in that order. Appended verbatim as text after the
// binary or hex payload when the host passes -g/-debug.
func WriteDebugTrailer(prog *Program) string {
	var sb strings.Builder
	for _, l := range prog.Labels {
		if l.IsData {
			fmt.Fprintf(&sb, "#data %s %08X\n", l.Name, l.Addr)
		} else {
			fmt.Fprintf(&sb, "#label %s %08X\n", l.Name, l.Addr)
		}
	}
	for _, l := range prog.Debug.Lines {
		fmt.Fprintf(&sb, "#line %s %d %08X\n", l.Path, l.Line, l.Addr)
	}
	for _, l := range prog.Debug.Locals {
		fmt.Fprintf(&sb, "#local %s %d %d %08X\n", l.Name, l.BPOffset, l.Size, l.Addr)
	}
	return sb.String()
}
