package codegen

import (
	"fmt"
	"os"
	"strings"
	"vc/internal/ast"
)

// ---------------------------------------------------------------------------
// Options controls the behaviour of the code-generation pipeline.
// ---------------------------------------------------------------------------

// Options configures the codegen pipeline.
type Options struct {
	// Target platform. If nil, LinuxAMD64 is used.
	Target *Target

	// OutputDir is the directory where all build artifacts are written.
	// Defaults to the working directory.
	OutputDir string

	// OutputName is the base name for the output files (without extension).
	// Defaults to "main".
	OutputName string

	// Verbose enables extra diagnostic output.
	Verbose bool

	// AsmOnly stops after emitting the assembly file (skip assemble + link).
	AsmOnly bool

	// SkipLink stops after assembling (produce .o but don't link).
	SkipLink bool
}

// DefaultOptions returns the defaults: main.asm, main.o and main in the
// working directory.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:  ".",
		OutputName: "main",
	}
}

// ---------------------------------------------------------------------------
// Result is returned by Generate with paths to all produced artifacts.
// ---------------------------------------------------------------------------

type Result struct {
	AsmFile string // path to the assembly file
	ObjFile string // path to the object file (empty if AsmOnly)
	ExeFile string // path to the executable (empty if AsmOnly or SkipLink)
}

// ---------------------------------------------------------------------------
// Generate: the public entry point for the full codegen pipeline
//
// Pipeline: AST -> assembly text -> object (nasm) -> executable (ld)
// ---------------------------------------------------------------------------

// Generate runs the full code-generation pipeline on the given AST program.
// Nothing is written to disk when code generation fails.
func Generate(program *ast.Program, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	target := opts.Target
	if target == nil {
		target = LinuxAMD64()
	}

	outputName := opts.OutputName
	if outputName == "" {
		outputName = "main"
	}
	// Sanitize: replace dots/spaces with underscores.
	outputName = strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, outputName)

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}

	// --- Step 1: Emit assembly ---
	if opts.Verbose {
		fmt.Printf("[codegen] Emitting %s assembly...\n", target)
	}
	asmText, err := NewGenerator(target).Generate(program)
	if err != nil {
		return nil, err
	}

	// --- Step 2: Write assembly file ---
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", outDir, err)
	}
	tc := NewToolchain(target, outDir, outputName)
	tc.Verbose = opts.Verbose

	if err := tc.WriteAssembly(asmText); err != nil {
		return nil, fmt.Errorf("cannot write assembly file: %w", err)
	}
	result := &Result{AsmFile: tc.AsmFile}

	if opts.Verbose {
		fmt.Printf("[codegen] Assembly written to %s\n", result.AsmFile)
	}

	if opts.AsmOnly {
		return result, nil
	}

	// --- Step 3: Assemble ---
	if missing := DetectToolchain(); len(missing) > 0 {
		fmt.Printf("[codegen] Warning: missing toolchain components: %s\n", strings.Join(missing, ", "))
		fmt.Printf("[codegen] Assembly file was written to %s; you can assemble and link manually.\n", result.AsmFile)
		return result, nil
	}
	if _, err := HostTarget(); err != nil && opts.Verbose {
		fmt.Printf("[codegen] Warning: %v; the executable will not run on this host\n", err)
	}

	if opts.Verbose {
		fmt.Println("[codegen] Assembling...")
	}
	if err := tc.Assemble(); err != nil {
		return result, fmt.Errorf("assembly failed: %w", err)
	}
	result.ObjFile = tc.ObjFile

	if opts.SkipLink {
		return result, nil
	}

	// --- Step 4: Link ---
	if opts.Verbose {
		fmt.Println("[codegen] Linking...")
	}
	if err := tc.Link(); err != nil {
		return result, fmt.Errorf("linking failed: %w", err)
	}
	result.ExeFile = tc.ExeFile

	if opts.Verbose {
		fmt.Printf("[codegen] Executable written to %s\n", result.ExeFile)
	}

	return result, nil
}
