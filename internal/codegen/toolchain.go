package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Toolchain: nasm + ld invocation
// ---------------------------------------------------------------------------

// Toolchain represents the external programs used to assemble and link.
type Toolchain struct {
	Target   *Target
	BuildDir string
	AsmFile  string // path to the assembly file
	ObjFile  string // path to the object file
	ExeFile  string // path to the final executable
	Verbose  bool
	NASMPath string // custom nasm binary; empty means look it up on PATH
	LDPath   string // custom ld binary; empty means look it up on PATH
}

// NewToolchain creates a Toolchain for the given target and build directory.
func NewToolchain(target *Target, buildDir, baseName string) *Toolchain {
	return &Toolchain{
		Target:   target,
		BuildDir: buildDir,
		AsmFile:  filepath.Join(buildDir, baseName+target.FileExtAsm()),
		ObjFile:  filepath.Join(buildDir, baseName+target.FileExtObj()),
		ExeFile:  filepath.Join(buildDir, baseName+target.FileExtExe()),
	}
}

// WriteAssembly writes the assembly string to the .asm file.
func (tc *Toolchain) WriteAssembly(asm string) error {
	return os.WriteFile(tc.AsmFile, []byte(asm), 0644)
}

// Assemble runs nasm to produce an object file from the assembly.
func (tc *Toolchain) Assemble() error {
	cmd := exec.Command(tc.nasm(), "-f", tc.Target.ObjFmt, "-o", tc.ObjFile, tc.AsmFile)
	return tc.runCmd(cmd, "assemble (nasm)")
}

// Link runs ld to produce the final executable.
func (tc *Toolchain) Link() error {
	cmd := exec.Command(tc.ld(), "-o", tc.ExeFile, tc.ObjFile)
	return tc.runCmd(cmd, "link")
}

func (tc *Toolchain) nasm() string {
	if tc.NASMPath != "" {
		return tc.NASMPath
	}
	return "nasm"
}

func (tc *Toolchain) ld() string {
	if tc.LDPath != "" {
		return tc.LDPath
	}
	return "ld"
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (tc *Toolchain) runCmd(cmd *exec.Cmd, stage string) error {
	if tc.Verbose {
		fmt.Printf("[toolchain] %s: %s\n", stage, strings.Join(cmd.Args, " "))
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = os.Stdout

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%s failed: %v\n%s", stage, err, stderr.String())
	}
	return nil
}

// DetectToolchain checks whether nasm and ld are on PATH and returns the
// missing ones.
func DetectToolchain() []string {
	return DetectToolchainWithPaths("", "")
}

// DetectToolchainWithPaths checks for tools using custom paths for nasm/ld.
func DetectToolchainWithPaths(nasmPath, ldPath string) []string {
	var missing []string
	if !toolExists(nasmPath, "nasm") {
		missing = append(missing, "nasm")
	}
	if !toolExists(ldPath, "ld") {
		missing = append(missing, "ld (linker)")
	}
	return missing
}

func toolExists(path, name string) bool {
	if path != "" {
		_, err := os.Stat(path)
		return err == nil
	}
	_, err := exec.LookPath(name)
	return err == nil
}
