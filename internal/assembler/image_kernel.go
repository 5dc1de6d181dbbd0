// Completion: 100% - Kernel-mode raw hex image writer complete
package assembler

import (
	"fmt"
	"strings"
)

// WriteKernelImage renders a kernel-mode program as the reference raw-hex
// format (spec.md sec.8, scenario S1): one "@<word-address>" line per
// output node (word-address = Origin/4, uppercase hex), followed by one
// "%08X" line per word in that node, uppercase, no "0x" prefix.
func WriteKernelImage(prog *Program) (string, error) {
	if !prog.IsKernel {
		return "", fmt.Errorf("WriteKernelImage: program was not assembled in kernel mode")
	}
	var sb strings.Builder
	for _, node := range prog.KernelNodes {
		if node.Origin%4 != 0 {
			return "", fmt.Errorf("kernel node origin 0x%x is not 4-byte aligned", node.Origin)
		}
		fmt.Fprintf(&sb, "@%X\n", node.Origin/4)
		for _, w := range node.Words() {
			fmt.Fprintf(&sb, "%08X\n", w)
		}
	}
	return sb.String(), nil
}
