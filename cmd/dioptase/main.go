// Completion: 100% - CLI interface complete, all flags working
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/xyproto/dioptase/internal/assembler"
	"github.com/xyproto/dioptase/internal/hostenv"
)

const defaultOutputFilename = "./a.hex"

// defineFlag collects repeated -DNAME=value occurrences (spec.md sec.6).
type defineFlag []string

func (d *defineFlag) String() string { return strings.Join(*d, ",") }

func (d *defineFlag) Set(value string) error {
	*d = append(*d, value)
	return nil
}

func main() {
	var outputFilename = flag.String("o", defaultOutputFilename, "output path")
	var preOnly = flag.Bool("pre", false, "emit preprocessed text instead of assembling")
	var kernelMode = flag.Bool("kernel", false, "assemble in kernel mode (no ELF, raw hex, privileged instructions allowed)")
	var debugTrailer = flag.Bool("g", false, "append the debug trailer")
	var debugTrailerLong = flag.Bool("debug", false, "same as -g")
	var crtMode = flag.Bool("crt", false, "prepend the runtime startup files from DIOPTASE_CRT_DIR or DIOPTASE_ROOT/Dioptase-OS/crt")
	var defines defineFlag
	flag.Var(&defines, "D", "inject a .define NAME=value before any source is seen (repeatable)")
	flag.Parse()

	inputFiles := flag.Args()
	if len(inputFiles) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files given")
		os.Exit(1)
	}

	useColor := term.IsTerminal(int(os.Stderr.Fd()))
	diag := assembler.NewDiagnostics(useColor)

	var files []assembler.SourceFile

	if *crtMode {
		dir, err := hostenv.CRTDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		crtFiles, err := hostenv.CRTFiles(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, path := range crtFiles {
			text, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			files = append(files, assembler.SourceFile{Path: path, Text: text})
		}
	}

	if defineText, err := definesAsSource(defines); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	} else if defineText != "" {
		files = append(files, assembler.SourceFile{Path: "<command-line>", Text: []byte(defineText)})
	}

	for _, path := range inputFiles {
		text, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		files = append(files, assembler.SourceFile{Path: path, Text: text})
	}

	cfg := assembler.Config{
		IsKernel: *kernelMode,
		Debug:    *debugTrailer || *debugTrailerLong,
		UseColor: useColor,
	}

	if *preOnly {
		if err := writePreprocessed(cfg, files, *outputFilename); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	prog, err := assembler.Assemble(cfg, diag, files)
	if err != nil {
		fmt.Fprint(os.Stderr, diag.Report())
		os.Exit(1)
	}

	out, err := renderImage(prog, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Debug {
		out = append(out, []byte(assembler.WriteDebugTrailer(prog))...)
	}

	if err := os.WriteFile(*outputFilename, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if n := diag.WarningCount(); n > 0 {
		fmt.Fprint(os.Stderr, diag.Report())
	}
}

// definesAsSource turns every -DNAME=value (or bare -DNAME) into a
// ".define NAME value" source line, concatenated as a synthetic file that
// assembles before any real input (spec.md sec.6).
func definesAsSource(defines defineFlag) (string, error) {
	if len(defines) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, d := range defines {
		name, value, hasValue := strings.Cut(d, "=")
		if name == "" {
			return "", fmt.Errorf("invalid -D%s: missing name", d)
		}
		if !hasValue {
			value = "1"
		}
		if _, err := strconv.ParseInt(value, 0, 64); err != nil {
			return "", fmt.Errorf("invalid -D%s=%s: value must be an integer literal", name, value)
		}
		fmt.Fprintf(&sb, ".define %s %s\n", name, value)
	}
	return sb.String(), nil
}

// renderImage runs the image writer appropriate to the assembly mode:
// ELF32 bytes for user mode, the raw hex text form for kernel mode
// (spec.md sec.4.G).
func renderImage(prog *assembler.Program, cfg assembler.Config) ([]byte, error) {
	if cfg.IsKernel {
		text, err := assembler.WriteKernelImage(prog)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}
	return assembler.WriteELFImage(prog)
}

// writePreprocessed re-runs just the preprocessing stage over the same
// inputs and writes the concatenated expanded text (spec.md sec.6: "-pre:
// emit preprocessed text instead of assembling; exit 0").
func writePreprocessed(cfg assembler.Config, files []assembler.SourceFile, outputFilename string) error {
	diag := assembler.NewDiagnostics(false)
	out, err := assembler.PreprocessAll(cfg, diag, files)
	if err != nil {
		return err
	}
	return os.WriteFile(outputFilename, out, 0o644)
}
