// Completion: 100% - Diagnostic reporting complete
package assembler

import (
	"errors"
	"fmt"
	"strings"
)

// errAborted is returned by callers that observe an ErrorAt result from the
// scanner: the diagnostic itself was already printed by Diagnostics.Fatal
// at the point of detection, so the pass just needs any non-nil error to
// unwind immediately.
var errAborted = errors.New("assembly aborted: see diagnostics")

// Kind classifies a diagnostic per spec.md sec.7.
type Kind int

const (
	KindSyntax Kind = iota
	KindSymbol
	KindSection
	KindEncoding
	KindAlignment
	KindIO
	KindWarning
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindSymbol:
		return "SymbolError"
	case KindSection:
		return "SectionError"
	case KindEncoding:
		return "EncodingError"
	case KindAlignment:
		return "AlignmentError"
	case KindIO:
		return "IOError"
	case KindWarning:
		return "Warning"
	default:
		return "UnknownError"
	}
}

// Diagnostic is a single fatal error or warning, carrying enough source
// context to print the "Error in <file> / line <n>: ..." block spec.md
// sec.7 requires.
type Diagnostic struct {
	Kind       Kind
	File       string
	Line       int
	SourceLine string
	Message    string
}

// Error implements the error interface so a Diagnostic can be returned and
// propagated like any other Go error; every pass aborts at the first one.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("Error in %s\nline %d: %q\n%s", d.File, d.Line, d.SourceLine, d.Message)
}

type diagSite struct {
	file string
	line int
}

// Diagnostics collects and prints warnings and fatal errors. A "has
// printed" latch, keyed by (file, line), ensures a cascading series of
// diagnostics from the same source line is underlined exactly once even
// when the caller keeps calling Warn/Fatal for the same site.
type Diagnostics struct {
	sb       strings.Builder
	useColor bool
	printed  map[diagSite]bool
	warnings int
}

// NewDiagnostics creates a diagnostics sink. useColor enables ANSI color
// for TTY output (set by the cmd/dioptase host via golang.org/x/term).
func NewDiagnostics(useColor bool) *Diagnostics {
	return &Diagnostics{useColor: useColor, printed: make(map[diagSite]bool)}
}

// Fatal records a fatal diagnostic and returns it as an error. Callers must
// stop the current pass immediately: "no pass continues past the first
// error" (spec.md sec.7).
func (d *Diagnostics) Fatal(kind Kind, file string, line int, sourceLine, format string, args ...any) error {
	diag := &Diagnostic{Kind: kind, File: file, Line: line, SourceLine: sourceLine, Message: fmt.Sprintf(format, args...)}
	d.print(diag)
	return diag
}

// Warn records a non-fatal diagnostic. It never aborts the pass.
func (d *Diagnostics) Warn(file string, line int, sourceLine, format string, args ...any) {
	diag := &Diagnostic{Kind: KindWarning, File: file, Line: line, SourceLine: sourceLine, Message: fmt.Sprintf(format, args...)}
	d.print(diag)
	d.warnings++
}

// WarningCount returns the number of warnings emitted so far.
func (d *Diagnostics) WarningCount() int { return d.warnings }

func (d *Diagnostics) print(diag *Diagnostic) {
	site := diagSite{file: diag.File, line: diag.Line}
	if d.printed[site] {
		return
	}
	d.printed[site] = true

	red, blue, reset := "", "", ""
	if d.useColor {
		red, blue, reset = "\033[1;31m", "\033[1;34m", "\033[0m"
	}

	if diag.Kind == KindWarning {
		fmt.Fprintf(&d.sb, "%swarning%s: %s\n", red, reset, diag.Message)
	} else {
		fmt.Fprintf(&d.sb, "%sError in %s%s\n", blue, diag.File, reset)
	}
	fmt.Fprintf(&d.sb, "line %d: %q\n", diag.Line, diag.SourceLine)
	if diag.Kind != KindWarning {
		fmt.Fprintf(&d.sb, "%s\n", diag.Message)
	}
}

// Report returns everything printed so far, for the host to write to
// stderr.
func (d *Diagnostics) Report() string { return d.sb.String() }
