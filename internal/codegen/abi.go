package codegen

import "fmt"

// MaxArgs is the number of integer arguments passed in registers.
const MaxArgs = 6

// regSet names one register at each width, indexed by widthIndex.
type regSet [4]string

// accumulator holds the value of the expression just evaluated.
var accumulator = regSet{"al", "ax", "eax", "rax"}

// argRegisters is the System V integer argument sequence.
var argRegisters = [MaxArgs]regSet{
	{"dil", "di", "edi", "rdi"},
	{"sil", "si", "esi", "rsi"},
	{"dl", "dx", "edx", "rdx"},
	{"cl", "cx", "ecx", "rcx"},
	{"r8b", "r8w", "r8d", "r8"},
	{"r9b", "r9w", "r9d", "r9"},
}

func widthIndex(width int) (int, bool) {
	switch width {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 4:
		return 2, true
	case 8:
		return 3, true
	}
	return 0, false
}

func (r regSet) sized(width int) string {
	i, ok := widthIndex(width)
	if !ok {
		return r[3]
	}
	return r[i]
}

// ArgRegister returns the register carrying argument number pos (0-based)
// when it is width bytes wide.
func ArgRegister(pos, width int) (string, error) {
	if pos < 0 || pos >= MaxArgs {
		return "", fmt.Errorf("argument position %d out of range (max %d)", pos, MaxArgs)
	}
	i, ok := widthIndex(width)
	if !ok {
		return "", fmt.Errorf("no argument register of width %d", width)
	}
	return argRegisters[pos][i], nil
}

// sizeKeyword is the NASM operand-size prefix for a width.
func sizeKeyword(width int) string {
	switch width {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	default:
		return "qword"
	}
}

// slotOperand formats a frame-pointer-relative memory operand.
func slotOperand(width, offset int) string {
	return fmt.Sprintf("%s [rbp - %d]", sizeKeyword(width), offset)
}

// loadInstr sign-extends a slot of the given width into the 64-bit dst.
func loadInstr(dst string, width, offset int) string {
	mem := slotOperand(width, offset)
	switch width {
	case 1, 2:
		return fmt.Sprintf("movsx %s, %s", dst, mem)
	case 4:
		return fmt.Sprintf("movsxd %s, %s", dst, mem)
	default:
		return fmt.Sprintf("mov %s, %s", dst, mem)
	}
}

// storeInstr writes the low width bytes of src's register set into a slot.
func storeInstr(src regSet, width, offset int) string {
	return fmt.Sprintf("mov %s, %s", slotOperand(width, offset), src.sized(width))
}
