package codegen

import (
	"fmt"
	"runtime"
)

// ---------------------------------------------------------------------------
// Target: the fully-resolved compilation target
// ---------------------------------------------------------------------------

// Target holds everything the emitter and toolchain need to know about the
// platform: entry symbol, assembler object format, and syscall convention.
// Only Linux on x86-64 is supported.
type Target struct {
	OS   string
	Arch string

	// ObjFmt is passed to nasm as -f.
	ObjFmt string

	// EntryPoint is the linker entry-point symbol.
	EntryPoint string

	// SyscallInstr invokes the kernel; SyscallReg carries the syscall number
	// and SyscallArgReg its first argument.
	SyscallInstr  string
	SyscallReg    string
	SyscallArgReg string

	// ExitSyscall is the number of the terminate-process system call.
	ExitSyscall int
}

// LinuxAMD64 returns the Linux x86-64 target.
func LinuxAMD64() *Target {
	return &Target{
		OS:            "linux",
		Arch:          "amd64",
		ObjFmt:        "elf64",
		EntryPoint:    "_start",
		SyscallInstr:  "syscall",
		SyscallReg:    "rax",
		SyscallArgReg: "rdi",
		ExitSyscall:   60,
	}
}

// HostTarget returns the Target matching the current Go runtime
// (GOOS/GOARCH), or an error when the host cannot run the output.
func HostTarget() (*Target, error) {
	return ResolveTarget(runtime.GOOS, runtime.GOARCH)
}

// ResolveTarget builds a Target from OS/Arch name strings (same names Go uses).
func ResolveTarget(osName, archName string) (*Target, error) {
	if osName != "linux" {
		return nil, fmt.Errorf("unsupported OS: %s", osName)
	}
	switch archName {
	case "amd64", "x86_64":
		return LinuxAMD64(), nil
	default:
		return nil, fmt.Errorf("unsupported architecture: %s", archName)
	}
}

func (t *Target) String() string {
	return t.OS + "/" + t.Arch
}

// FileExtAsm returns the assembly file extension.
func (t *Target) FileExtAsm() string { return ".asm" }

// FileExtObj returns the object file extension.
func (t *Target) FileExtObj() string { return ".o" }

// FileExtExe returns the executable extension.
func (t *Target) FileExtExe() string { return "" }
