// Completion: 100% - CRT directory resolution complete
// Package hostenv resolves the host environment variables the dioptase
// CLI consults when -crt is passed (spec.md sec.6): DIOPTASE_CRT_DIR
// directly, or DIOPTASE_ROOT joined with the conventional crt subpath.
package hostenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xyproto/env/v2"
)

// crtSubpath is where the runtime startup sources live under DIOPTASE_ROOT
// when DIOPTASE_CRT_DIR is not set directly.
const crtSubpath = "Dioptase-OS/crt"

// CRTDir resolves the directory -crt should load startup files from.
// DIOPTASE_CRT_DIR wins outright; otherwise DIOPTASE_ROOT/Dioptase-OS/crt
// is used. Neither being set is an error, since -crt has no third
// fallback to try.
func CRTDir() (string, error) {
	if dir := env.Str("DIOPTASE_CRT_DIR"); dir != "" {
		return dir, nil
	}
	if root := env.Str("DIOPTASE_ROOT"); root != "" {
		return filepath.Join(root, crtSubpath), nil
	}
	return "", fmt.Errorf("-crt requires DIOPTASE_CRT_DIR or DIOPTASE_ROOT to be set")
}

// CRTFiles lists the startup source files in dir, sorted by name so the
// assembled order is deterministic regardless of directory traversal
// order.
func CRTFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading CRT directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(dir, n)
	}
	return out, nil
}
